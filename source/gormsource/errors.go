package gormsource

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/cachefu/source"
)

var (
	ErrNilDB         = errors.New("gormsource: db is nil")
	ErrNoPrimaryKey  = errors.New("gormsource: model has no primary key")
	ErrUnknownDriver = errors.New("gormsource: unknown driver")
	ErrNoDSN         = errors.New("gormsource: dsn is required")

	ErrUnknownColumn   = fmt.Errorf("gormsource: unknown column: %w", source.ErrInvalidQuery)
	ErrUnknownRelation = fmt.Errorf("gormsource: unknown relation: %w", source.ErrInvalidQuery)
)
