package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"skylock-backend/models"
)

// HandleCreateSession - 세션 생성
func HandleCreateSession(c *fiber.Ctx) error {
	var req models.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청 형식입니다",
		})
	}

	s, err := sessions.Create(req.Width, req.Height)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(s.Info())
}

// HandleListSessions - 세션 목록
func HandleListSessions(c *fiber.Ctx) error {
	list := sessions.List()
	infos := make([]models.SessionInfo, 0, len(list))
	for _, s := range list {
		infos = append(infos, s.Info())
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(infos),
		"sessions": infos,
	})
}

// HandleGetSession - 세션 상태 (잠금 + 마지막 결과)
func HandleGetSession(c *fiber.Ctx) error {
	s, err := sessions.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(s.Info())
}

// HandleDeleteSession - 세션 삭제 (시뮬레이터 세션이면 시뮬레이터도 중지)
func HandleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := sessions.Remove(id); err != nil {
		return errorResponse(c, err)
	}
	if simulator != nil && simulator.Session().ID == id {
		simulator.Stop()
	}
	return c.JSON(fiber.Map{
		"success": true,
		"id":      id,
	})
}

// HandleSelectTarget - 타겟 잠금
func HandleSelectTarget(c *fiber.Ctx) error {
	s, err := sessions.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	var req models.SelectTargetRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "잘못된 요청 형식입니다",
			})
		}
	}

	id, err := s.SelectTarget(req.Tracks, req.TrackID)
	if err != nil {
		return errorResponse(c, err)
	}

	log.Printf("🎯 세션 %s 타겟 선택: ID %d", s.ID, id)
	return c.JSON(fiber.Map{
		"success":   true,
		"target_id": id,
		"lock":      s.LockState(),
	})
}

// HandleClearTarget - 잠금 해제
func HandleClearTarget(c *fiber.Ctx) error {
	s, err := sessions.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	s.ClearTarget()
	return c.JSON(fiber.Map{
		"success": true,
		"lock":    s.LockState(),
	})
}

// HandleProcessFrame - 프레임 한 장 처리
func HandleProcessFrame(c *fiber.Ctx) error {
	s, err := sessions.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	var req models.FrameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청 형식입니다",
		})
	}

	in, err := buildFrameInput(s, req)
	if err != nil {
		return errorResponse(c, err)
	}

	result, err := s.Process(c.UserContext(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

// HandleGetSimulator - 시뮬레이터 장면과 세션 정보
func HandleGetSimulator(c *fiber.Ctx) error {
	if simulator == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "simulator is disabled",
		})
	}
	return c.JSON(fiber.Map{
		"running": simulator.Running(),
		"session": simulator.Session().Info(),
		"scene":   simulator.Scene(),
	})
}
