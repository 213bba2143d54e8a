package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTurn struct {
	Role string `json:"role" validate:"required,oneof=user model assistant"`
	Text string `json:"text" validate:"notblank"`
}

type testRequest struct {
	Prompt    string     `json:"prompt" validate:"notblank"`
	ProjectID string     `json:"projectId,omitempty" validate:"omitempty,uuid"`
	Limit     int        `json:"limit" validate:"gte=0,lte=100"`
	History   []testTurn `json:"history" validate:"dive"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      testRequest
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: testRequest{Prompt: "Write a haiku", ProjectID: "3f6c2a8e-2d4b-4c38-9b55-7b1f0e3c9a11", Limit: 10},
		},
		{
			name:       "blank prompt",
			input:      testRequest{Prompt: "   "},
			wantFields: map[string]string{"prompt": "prompt is required"},
		},
		{
			name:       "bad uuid",
			input:      testRequest{Prompt: "x", ProjectID: "nope"},
			wantFields: map[string]string{"projectId": "projectId must be a valid UUID"},
		},
		{
			name:       "range",
			input:      testRequest{Prompt: "x", Limit: 500},
			wantFields: map[string]string{"limit": "limit must be less than or equal to 100"},
		},
		{
			name: "nested turn",
			input: testRequest{Prompt: "x", History: []testTurn{
				{Role: "user", Text: "hi"},
				{Role: "system", Text: ""},
			}},
			wantFields: map[string]string{
				"history[1].role": "history[1].role must be one of: user model assistant",
				"history[1].text": "history[1].text is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, tt.wantFields, GetValidationFields(err))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "Validation failed", Fields: map[string]string{"prompt": "prompt is required"}}
	assert.Equal(t, "Validation failed", err.Error())
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.Nil(t, FieldDetails(assert.AnError))
}

func TestFieldDetails(t *testing.T) {
	err := &ValidationError{Message: "Validation failed", Fields: map[string]string{"prompt": "prompt is required"}}
	assert.Equal(t, map[string]interface{}{"prompt": "prompt is required"}, FieldDetails(err))
}
