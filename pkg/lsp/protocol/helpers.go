package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// NonNilSlice makes empty results encode as [] rather than null.
func NonNilSlice[T any](x []T) []T {
	if x == nil {
		return []T{}
	}
	return x
}

// invalidParams is returned when the params parse as JSON but do not fit
// the method's params type.
func invalidParams(method string, err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32602,
		Message: method + ": " + err.Error(),
	}
}

// decodeParams reads the params of r into a new T. A request without params
// yields the zero value, which notifications such as "initialized" send.
func decodeParams[T any](r *jrpc2.Request) (*T, error) {
	params := new(T)
	if !r.HasParams() {
		return params, nil
	}
	if err := r.UnmarshalParams(params); err != nil {
		return nil, invalidParams(r.Method(), err)
	}
	return params, nil
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		params, err := decodeParams[T](r)
		if err != nil {
			return nil, err
		}
		return method(ctx, params)
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		params, err := decodeParams[T](r)
		if err != nil {
			return nil, err
		}
		return nil, method(ctx, params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		return nil, method(ApplyRequestToZerolog(ctx, r))
	})
}
