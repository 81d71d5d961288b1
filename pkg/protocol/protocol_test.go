package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		payload string
		want    Kind
	}{
		{"HELLO", KindHello},
		{"MOVE", KindMove},
		{"ACK", KindEcho},
		{"hello friend", KindSpeech},
		{"hello", KindSpeech},
		{"HELLO\n", KindSpeech},
		{"MOVE ", KindSpeech},
		{"move", KindSpeech},
		{"ciao, sono pastabot è bello", KindSpeech},
		{"", KindEmpty},
		{" \t\n", KindEmpty},
		{"\xff\xfe\xfd", KindMalformed},
		{"abc\xc3", KindMalformed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify([]byte(tt.payload)), "Classify(%q)", tt.payload)
	}
}

func TestKind_Ignored(t *testing.T) {
	assert.False(t, KindHello.Ignored())
	assert.False(t, KindMove.Ignored())
	assert.False(t, KindSpeech.Ignored())
	assert.True(t, KindEmpty.Ignored())
	assert.True(t, KindEcho.Ignored())
	assert.True(t, KindMalformed.Ignored())
	assert.Equal(t, "malformed", KindMalformed.String())
}
