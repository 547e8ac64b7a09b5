package objectstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	a := ObjectKey("reports/abc", "Photo.JPG")
	b := ObjectKey("reports/abc", "Photo.JPG")

	assert.True(t, strings.HasPrefix(a, "reports/abc/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, ObjectKey("x", "noext"), ".")
}
