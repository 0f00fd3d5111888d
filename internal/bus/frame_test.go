package bus

import (
	"errors"
	"testing"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name        string
		kind        websocket.MessageType
		data        string
		wantType    CommandType
		wantPayload []byte
		wantErr     string
	}{
		{
			name:     "text frame",
			kind:     websocket.MessageText,
			data:     `{"type":"trackLink","url":"https://example.com"}`,
			wantType: TypeTrackLink,
		},
		{
			name:        "binary frame with payload",
			kind:        websocket.MessageBinary,
			data:        "{\"type\":\"upload\",\"name\":\"a.bin\"}\n\x00\x01\n\x02",
			wantType:    "upload",
			wantPayload: []byte("\x00\x01\n\x02"),
		},
		{
			name:        "binary frame with empty payload",
			kind:        websocket.MessageBinary,
			data:        "{\"type\":\"upload\"}\n",
			wantType:    "upload",
			wantPayload: []byte{},
		},
		{
			name:    "binary frame without separator",
			kind:    websocket.MessageBinary,
			data:    `{"type":"upload"}`,
			wantErr: "missing header separator",
		},
		{
			name:    "missing type",
			kind:    websocket.MessageText,
			data:    `{"url":"https://example.com"}`,
			wantErr: "missing type",
		},
		{
			name:    "invalid json",
			kind:    websocket.MessageText,
			data:    `{"type":`,
			wantErr: "invalid header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseFrame(tt.kind, []byte(tt.data))
			if tt.wantErr != "" {
				var frameErr *common.FrameError
				require.True(t, errors.As(err, &frameErr))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, req.Type)
			assert.Equal(t, tt.wantPayload, req.Payload)
		})
	}
}

func TestRequest_Bind(t *testing.T) {
	req, err := ParseFrame(websocket.MessageText, []byte(`{"type":"setLinkMask","rowId":7,"mask":"ad-\\d+"}`))
	require.NoError(t, err)

	var args struct {
		RowID int64  `json:"rowId"`
		Mask  string `json:"mask"`
	}
	require.NoError(t, req.Bind(&args))
	assert.Equal(t, int64(7), args.RowID)
	assert.Equal(t, `ad-\d+`, args.Mask)

	var wrong struct {
		RowID string `json:"rowId"`
	}
	err = req.Bind(&wrong)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
