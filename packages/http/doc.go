// Package http is a small single-shot HTTP request helper.
//
// A call goes through three stages:
//   - Resolve turns a URL or *RequestOptions into a Descriptor, encoding the
//     body and deriving Content-Type, Content-Length and Accept
//   - Client.Execute performs exactly one round trip and buffers the body
//   - DecodeJSON optionally parses the buffered body
//
// Caller headers always win over derived ones. Redirects are not followed and
// no cookies are kept.
package http
