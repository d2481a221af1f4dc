// Package inspect pulls values out of a completed call and checks response
// bodies against JSON Schema documents.
//
// Expressions accepted by Extract:
//
//	status            response status code
//	duration          round trip in milliseconds
//	header:<name>     a response header
//	body              the whole body (decoded when it is JSON)
//	<gjson path>      a value inside a JSON body, e.g. items.0.id
package inspect
