package http

import "context"

// DefaultClient backs the package-level calls.
var DefaultClient = NewClient()

// Get is the default entry point of the package.
func Get(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Get(ctx, target, body)
}

func Post(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Post(ctx, target, body)
}

func Put(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Put(ctx, target, body)
}

func Patch(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Patch(ctx, target, body)
}

func Delete(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Delete(ctx, target, body)
}

func Head(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Head(ctx, target, body)
}

func Options(ctx context.Context, target Target, body any) (*Result, error) {
	return DefaultClient.Options(ctx, target, body)
}

func Do(ctx context.Context, method Method, target Target, body any) (*Result, error) {
	return DefaultClient.Do(ctx, method, target, body)
}

func JSON(ctx context.Context, target Target) (any, error) {
	return DefaultClient.JSON(ctx, target)
}
