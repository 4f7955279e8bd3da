package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"skylock-backend/models"
	"skylock-backend/services"
)

// HandleSessionWebSocket - 세션별 프레임 스트림
//
// Request/response: every inbound message is answered on the same
// connection. Frames produced by the simulator for this session are pushed
// to the connection as well.
func HandleSessionWebSocket(c *websocket.Conn) {
	sessionID := c.Params("id")
	client := Manager.Register(c, sessionID)
	defer func() {
		Manager.Unregister(client)
		_ = c.Close()
	}()

	s, err := sessions.Get(sessionID)
	if err != nil {
		_ = client.Send(models.MessageTypeError, errorPayload(err))
		return
	}

	// 연결 확인 메시지 전송
	_ = client.Send(models.MessageTypeSystemInfo, map[string]interface{}{
		"message":      "세션 연결됨",
		"session":      s.Info(),
		"connected_at": time.Now().Format(time.RFC3339),
	})

	for {
		var msg models.InboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("웹 메시지 읽기 오류 (세션 %s): %v", sessionID, err)
			return
		}

		replyType, reply := dispatchMessage(context.Background(), s, msg)
		if err := client.Send(replyType, reply); err != nil {
			log.Printf("전송 실패 (세션 %s): %v", sessionID, err)
			return
		}
	}
}

// dispatchMessage handles one inbound message and returns the reply.
func dispatchMessage(ctx context.Context, s *services.Session, msg models.InboundMessage) (string, interface{}) {
	switch msg.Type {
	case models.MessageTypeFrame:
		var req models.FrameRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return models.MessageTypeError, errorPayload(fmt.Errorf("%w: %v", errBadRequest, err))
		}
		in, err := buildFrameInput(s, req)
		if err != nil {
			return models.MessageTypeError, errorPayload(err)
		}
		result, err := s.Process(ctx, in)
		if err != nil {
			return models.MessageTypeError, errorPayload(err)
		}
		return models.MessageTypeFrameResult, result

	case models.MessageTypeSelectTarget:
		var req models.SelectTargetRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				return models.MessageTypeError, errorPayload(fmt.Errorf("%w: %v", errBadRequest, err))
			}
		}
		if _, err := s.SelectTarget(req.Tracks, req.TrackID); err != nil {
			return models.MessageTypeError, errorPayload(err)
		}
		return models.MessageTypeLockState, s.LockState()

	case models.MessageTypeClearTarget:
		s.ClearTarget()
		return models.MessageTypeLockState, s.LockState()

	default:
		log.Printf("알 수 없는 메시지 타입: %s", msg.Type)
		return models.MessageTypeError, errorPayload(fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type))
	}
}

// errorPayload carries the HTTP-equivalent status so clients can branch on it.
func errorPayload(err error) map[string]interface{} {
	return map[string]interface{}{
		"error":  err.Error(),
		"status": errorStatus(err),
	}
}
