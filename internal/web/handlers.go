package web

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Form field names of POST /api/runs.
const (
	FieldFile         = "file"
	FieldModel        = "model"
	FieldLanguage     = "language"
	FieldChunkMinutes = "chunk_minutes"
)

func (s *Server) newApp() *fiber.App {
	limit := s.bodyLimit
	if limit <= 0 || limit > math.MaxInt {
		limit = math.MaxInt
	}
	app := fiber.New(fiber.Config{
		AppName:               "chunkscribe",
		BodyLimit:             int(limit),
		StreamRequestBody:     true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Post("/runs", s.handleCreate)
	api.Get("/runs/:id", s.handleStatus)
	api.Post("/runs/:id/cancel", s.handleCancel)
	api.Get("/runs/:id/transcript.txt", s.handleTranscript)

	api.Use("/runs/:id/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/runs/:id/events", websocket.New(s.handleEvents))

	return app
}

// handleError renders every error as {"error": message}. Request
// validation failures are 400; anything else keeps its fiber code or 500.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case isValidation(err):
		code = fiber.StatusBadRequest
	case errors.Is(err, ErrRunNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, ErrNotFinished):
		code = fiber.StatusConflict
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func isValidation(err error) bool {
	return errors.Is(err, audio.ErrUnsupportedFormat) ||
		errors.Is(err, ErrMissingFile) ||
		errors.Is(err, pipeline.ErrInvalidConfig) ||
		errors.Is(err, audio.ErrInvalidChunkLength) ||
		errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, transcribe.ErrUnsupportedSize)
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	body, err := renderIndex(s.defaults)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(body)
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	cfg, err := s.parseConfig(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(FieldFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingFile, err)
	}
	name := safeName(fh.Filename)
	if err := audio.CheckFormat(name); err != nil {
		return err
	}

	dir, err := s.saveDir()
	if err != nil {
		return err
	}
	path := uploadPath(dir, name)
	if err := c.SaveFile(fh, path); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("save upload: %w", err)
	}

	r := s.start(upload{filename: name, size: fh.Size, dir: dir, path: path, cfg: cfg})
	return c.Status(fiber.StatusAccepted).JSON(r.Status())
}

// parseConfig reads the run settings. Missing fields take the server
// defaults; present fields must be valid.
func (s *Server) parseConfig(c *fiber.Ctx) (pipeline.Config, error) {
	cfg := s.defaults

	if v := strings.TrimSpace(c.FormValue(FieldModel)); v != "" {
		size, err := transcribe.ParseSize(v)
		if err != nil {
			return cfg, err
		}
		cfg.Size = size
	}
	if v := strings.TrimSpace(c.FormValue(FieldLanguage)); v != "" {
		if !lang.Offered(v) {
			return cfg, fmt.Errorf("%w: %q (choose one of %s)", lang.ErrInvalid, v, strings.Join(lang.UICodes, ", "))
		}
		cfg.Language = lang.Normalize(v)
	}
	if v := strings.TrimSpace(c.FormValue(FieldChunkMinutes)); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %q is not a whole number of minutes", audio.ErrInvalidChunkLength, v)
		}
		cfg.ChunkLength = time.Duration(minutes) * time.Minute
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Server) lookup(c *fiber.Ctx) (*run, error) {
	id := c.Params("id")
	r, ok := s.runs.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, nil
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	r, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(r.Status())
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	r, err := s.lookup(c)
	if err != nil {
		return err
	}
	r.cancel()
	return c.Status(fiber.StatusAccepted).JSON(r.Status())
}

func (s *Server) handleTranscript(c *fiber.Ctx) error {
	r, err := s.lookup(c)
	if err != nil {
		return err
	}
	st := r.Status()
	if st.State != StateDone {
		return fmt.Errorf("%w: run is %s", ErrNotFinished, st.State)
	}
	c.Attachment(TranscriptName(st.Filename))
	c.Type("txt", "utf-8")
	return c.SendString(st.Text)
}

// handleEvents streams status changes until the run ends or the client
// goes away.
func (s *Server) handleEvents(conn *websocket.Conn) {
	defer conn.Close()

	id := conn.Params("id")
	r, ok := s.runs.get(id)
	if !ok {
		_ = conn.WriteJSON(fiber.Map{"error": fmt.Sprintf("%s: %s", ErrRunNotFound, id)})
		return
	}

	events, unsubscribe := r.subscribe()
	defer unsubscribe()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("event stream read ended", "run_id", id, "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case st, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
