package parser

import (
	"errors"
	"testing"

	"lostfound-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Lost(t *testing.T) {
	report, err := Parse("Water Bottle, Library, Blue with sticker", models.Lost, "")
	require.NoError(t, err)
	assert.Equal(t, models.Lost, report.Type)
	assert.Equal(t, "Water Bottle", report.Item)
	assert.Equal(t, "Library", report.Location)
	assert.Equal(t, "Blue with sticker", report.Description)
	assert.Empty(t, report.ContactPhone)
}

func TestParse_LostDescriptionKeepsCommas(t *testing.T) {
	report, err := Parse("Bag,Hall B, black, two zips ,name tag", models.Lost, "")
	require.NoError(t, err)
	assert.Equal(t, "black, two zips, name tag", report.Description)
}

func TestParse_Found(t *testing.T) {
	report, err := Parse("Keys, Cafeteria, 08012345678", models.Found, "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "Keys", report.Item)
	assert.Equal(t, "Cafeteria", report.Location)
	assert.Equal(t, "08012345678", report.ContactPhone)
	assert.Equal(t, models.NoDescription, report.Description)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", report.ImageURL)

	report, err = Parse("Keys, Cafeteria, 08012345678, red keyring, 3 keys", models.Found, "")
	require.NoError(t, err)
	assert.Equal(t, "red keyring, 3 keys", report.Description)
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  models.ReportType
	}{
		{"two fields found", "Keys, Cafeteria", models.Found},
		{"two fields lost", "Keys, Cafeteria", models.Lost},
		{"empty", "", models.Lost},
		{"blank item", " , Library, blue", models.Lost},
		{"blank location", "Keys, , 0801", models.Found},
		{"blank phone", "Keys, Cafeteria, ", models.Found},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Parse(tt.text, tt.typ, "")
			assert.Nil(t, report)

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, tt.typ, formatErr.Type)
			assert.Equal(t, Template(tt.typ), formatErr.Template)
		})
	}
}
