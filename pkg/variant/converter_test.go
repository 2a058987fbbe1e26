package variant_test

import (
	"testing"

	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestNewOpenCCUnavailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := variant.NewOpenCC()
	require.Error(t, err)
	assert.True(t, errors.Is(err, variant.ErrDependencyUnavailable))
}
