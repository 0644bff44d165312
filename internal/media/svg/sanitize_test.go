package svg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	in := []byte(`<svg onload="alert(1)"><script>alert(2)</script><a href='javascript:x()'><rect onclick='y()'/></a></svg>`)
	out, err := Sanitize(in)
	require.NoError(t, err)
	assert.Equal(t, `<svg><a><rect/></a></svg>`, string(out))
}

func TestSanitizeRejectsNonSVG(t *testing.T) {
	_, err := Sanitize([]byte("<html></html>"))
	assert.ErrorIs(t, err, ErrNotSVG)
}
