package theme

import (
	"testing"

	"github.com/stretchr/testify/require"

	perrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

func TestPaletteValidateAcceptsMatchingKeys(t *testing.T) {
	t.Parallel()

	p := Palette{
		ID:    "ocean",
		Light: map[string]string{"color-background": "#ffffff", "color-text": "#000000"},
		Dark:  map[string]string{"color-background": "#000000", "color-text": "#ffffff"},
	}
	require.NoError(t, p.Validate())
	require.Equal(t, []string{"color-background", "color-text"}, p.Keys())
	require.Equal(t, "ocean", p.Label())
}

func TestPaletteValidateReportsKeyDrift(t *testing.T) {
	t.Parallel()

	p := Palette{
		ID:    "ocean",
		Light: map[string]string{"color-background": "#fff", "color-text": "#000"},
		Dark:  map[string]string{"color-background": "#000", "color-glow": "#0ff"},
	}
	err := p.Validate()

	var schemaErr *perrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"color-text"}, schemaErr.MissingDark)
	require.Equal(t, []string{"color-glow"}, schemaErr.MissingLite)
}

func TestPaletteValidateRejectsBadIDs(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"a": "1"}
	for _, id := range []string{"", "Ocean", "-ocean", "ocean blue", "ocean/blue"} {
		err := Palette{ID: id, Light: vars, Dark: vars}.Validate()
		var schemaErr *perrors.SchemaError
		require.ErrorAs(t, err, &schemaErr, "id %q", id)
	}
}

func TestPaletteCloneIsDeep(t *testing.T) {
	t.Parallel()

	p := Palette{ID: "x", Light: map[string]string{"a": "1"}, Dark: map[string]string{"a": "2"}}
	c := p.Clone()
	c.Light["a"] = "changed"
	require.Equal(t, "1", p.Light["a"])
	require.Equal(t, "2", c.Map(true)["a"])
}
