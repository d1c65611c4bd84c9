package httpapi

import (
	"io"

	"github.com/google/uuid"
)

func newUUID() string { return uuid.NewString() }

func readAll(r io.Reader) ([]byte, error) { return io.ReadAll(r) }
