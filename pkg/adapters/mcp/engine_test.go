package mcp_test

import (
	"context"

	"github.com/aretw0/emergence/pkg/domain"
)

type engineFunc func(ctx context.Context) (*domain.Document, error)

func (f engineFunc) Document(ctx context.Context) (*domain.Document, error) { return f(ctx) }
