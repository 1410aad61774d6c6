package memory

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icongen/pkg/contract"
)

func TestOpen(t *testing.T) {
	m := New(&Options{Files: map[string]string{"icon\\A.h": "a"}})
	m.Put("./B.h", "b")

	rc, err := m.Open(context.Background(), contract.Source{File: "icon/A.h"})
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "a", string(b))

	rc, err = m.Open(context.Background(), contract.Source{File: "B.h"})
	require.NoError(t, err)
	b, _ = io.ReadAll(rc)
	assert.Equal(t, "b", string(b))
}

func TestOpenMissing(t *testing.T) {
	_, err := New(nil).Open(context.Background(), contract.Source{File: "nope.h"})
	assert.ErrorIs(t, err, contract.ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
