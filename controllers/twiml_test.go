package controllers

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderReplies(t *testing.T, replies ...string) (*httptest.ResponseRecorder, []string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RenderTwiML(c, replies...)

	var resp struct {
		XMLName  xml.Name `xml:"Response"`
		Messages []string `xml:"Message"`
	}
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp.Messages
}

func TestRenderTwiML(t *testing.T) {
	w, messages := renderReplies(t, "🤖 **Bot** Menu:\n1. Report lost", `Keys & <wallet> "here"`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, twimlContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<?xml"))
	assert.Equal(t, []string{"🤖 **Bot** Menu:\n1. Report lost", `Keys & <wallet> "here"`}, messages)
}

func TestRenderTwiML_NoReplies(t *testing.T) {
	w, messages := renderReplies(t)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, messages)
}
