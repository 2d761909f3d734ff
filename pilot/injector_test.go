package pilot

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildDropScript_EmbedsPayload(t *testing.T) {
	data := []byte("<kml>Ünïcode & \"quotes\"</kml>")

	script, err := BuildDropScript(`my "route".kml`, data)
	require.NoError(t, err)

	assert.Contains(t, script, `"`+base64.StdEncoding.EncodeToString(data)+`"`)
	assert.Contains(t, script, `"my \"route\".kml"`)
	assert.Contains(t, script, `type: 'text/plain'`)
	assert.Contains(t, script, "bubbles: true")
	assert.Contains(t, script, "cancelable: true")
	assert.True(t, strings.HasPrefix(script, "function()"))
}

func TestBuildDropScript_EventOrder(t *testing.T) {
	script, err := BuildDropScript("a.kml", nil)
	require.NoError(t, err)

	assert.Contains(t, script, `["dragenter","dragover","drop"]`)
	// A single DataTransfer is shared by all three events.
	assert.Equal(t, 1, strings.Count(script, "new DataTransfer()"))
}

func TestInjectFile(t *testing.T) {
	b := &mockBrowser{}
	b.On("ExecuteScript", mock.MatchedBy(func(fn string) bool {
		return strings.Contains(fn, base64.StdEncoding.EncodeToString([]byte("payload")))
	})).Return(nil).Once()

	err := InjectFile(context.Background(), b, "waypoints.kml", []byte("payload"))
	require.NoError(t, err)
	b.AssertExpectations(t)
}

func TestInjectFile_DriverError(t *testing.T) {
	b := &mockBrowser{}
	boom := errors.New("target closed")
	b.On("ExecuteScript", mock.Anything).Return(boom).Once()

	err := InjectFile(context.Background(), b, "waypoints.kml", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "waypoints.kml")
	b.AssertNumberOfCalls(t, "ExecuteScript", 1)
}
