//go:build tools

// Package tools pins build-time tool dependencies so `go mod tidy` keeps
// them in go.mod. The gRPC stubs under protos/gen are regenerated with
// protoc-gen-go and protoc-gen-go-grpc and built with -tags protogen.
package tools

import (
	_ "google.golang.org/grpc/cmd/protoc-gen-go-grpc"
)
