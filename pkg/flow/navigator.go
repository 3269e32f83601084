package flow

import "context"

// Navigator moves the user to another surface after logout.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string) error

func (f NavigatorFunc) Navigate(ctx context.Context, path string) error {
	return f(ctx, path)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) error { return nil }
