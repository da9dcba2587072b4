package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var resp SendResponse
	err := json.Unmarshal([]byte(`{"success":true,"session_id":42,"user_message":{"id":"u1","content":"Hi"},"bot_message":{"id":7,"content":"Hello!"}}`), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, ID("42"), resp.SessionID)
	assert.Equal(t, ID("u1"), resp.UserMessage.ID)
	assert.Equal(t, ID("7"), resp.BotMessage.ID)
}

func TestIDNullDecodesEmpty(t *testing.T) {
	var resp EditResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"removed_bot_id":null}`), &resp))
	assert.Equal(t, ID(""), resp.RemovedBotID)
	assert.Nil(t, resp.NewBotMessage)
}

func TestIDRejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestIDMarshal(t *testing.T) {
	data, err := json.Marshal(SendRequest{Message: "Hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hi","session_id":null}`, string(data))

	data, err = json.Marshal(SendRequest{Message: "Hi", SessionID: "12"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hi","session_id":12}`, string(data))

	data, err = json.Marshal(DeleteMessageRequest{MessageID: "msg_1_abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_id":"msg_1_abc"}`, string(data))

	cases := map[string]string{
		`"007"`: `{"message_id":"007"}`,
		`"+5"`:  `{"message_id":"+5"}`,
		`"-0"`:  `{"message_id":"-0"}`,
		`"42"`:  `{"message_id":42}`,
		`42`:    `{"message_id":42}`,
		`-3`:    `{"message_id":-3}`,
	}
	for in, want := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(in), &id), in)
		data, err := json.Marshal(DeleteMessageRequest{MessageID: id})
		require.NoError(t, err, in)
		assert.JSONEq(t, want, string(data), in)
	}
}

func TestDeletedIDsAbsentVersusEmpty(t *testing.T) {
	var absent, empty DeleteMessageResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":true}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"deleted_ids":[]}`), &empty))

	assert.Nil(t, absent.DeletedIDs)
	assert.NotNil(t, empty.DeletedIDs)
	assert.Empty(t, empty.DeletedIDs)
}
