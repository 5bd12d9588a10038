package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCatalog_Sprintf(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "This building is protected: 100%", c.Sprintf("en", KeyProtection, 100))
	assert.Equal(t, "Это строение под защитой: 100%", c.Sprintf("ru", KeyProtection, 100))
	assert.Equal(t, "Raiding ends at 06:00", c.Sprintf("en-US", KeyRaidingEnds, "06:00"))
}

func TestCatalog_Match(t *testing.T) {
	c := MustNew()

	tests := []struct {
		in   string
		want language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"ru", language.Russian},
		{"ru-RU", language.Russian},
		{"%%garbage", language.English},
		{"ja", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.in))
		})
	}
}

func TestCatalog_EveryKeyTranslated(t *testing.T) {
	c := MustNew()
	for key, texts := range entries {
		for i, tag := range supported {
			assert.NotEmpty(t, texts[i], "missing %s for %s", tag, key)
		}
		// Unknown keys come back verbatim; known keys never do.
		assert.NotEqual(t, key, c.Sprintf("en", key))
	}
}

func TestCatalog_WithDefault(t *testing.T) {
	c := MustNew().WithDefault("ru")

	assert.Equal(t, language.Russian, c.Default())
	assert.Equal(t, language.Russian, c.Match(""))
	assert.Equal(t, language.Russian, c.Match("ja"))
	assert.Equal(t, language.English, c.Match("en"))

	// Unsupported defaults keep English.
	assert.Equal(t, language.English, MustNew().WithDefault("ja").Default())
}
