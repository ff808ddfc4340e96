package middleware

import (
	"bytes"
	"errors"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired makes a POST endpoint safe under at-least-once
// delivery: clients retry checkout and ledger posts until acknowledged,
// and a redelivered key replays the original response instead of
// applying the write twice.
//
// The key is reserved before the handler runs. Two concurrent deliveries
// of the same request race on the reservation's unique index, so only
// one of them ever executes the guarded write; the loser replays the
// winner's response once it is stored, or reports the request as still
// in progress.
func IdempotencyRequired(repo repository.IdempotencyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}

		userIDVal, exists := c.Get("user_id")
		if !exists {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}
		userID, ok := userIDVal.(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		existing, err := repo.GetByKey(c.Request.Context(), key, userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if existing != nil {
			switch {
			case existing.IsExpired():
				// A stale key no longer guards anything; clear it so the
				// request can run for real.
				if err := repo.Delete(c.Request.Context(), existing.ID); err != nil {
					response.Error(c, err)
					c.Abort()
					return
				}
			case existing.Completed():
				replay(c, existing)
				return
			default:
				inProgress(c)
				return
			}
		}

		reservation := &entity.IdempotencyKey{
			Key:       key,
			UserID:    userID,
			Endpoint:  c.Request.Method + " " + c.FullPath(),
			ExpiresAt: time.Now().Add(IdempotencyKeyTTL),
		}
		if err := repo.Create(c.Request.Context(), reservation); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				// A concurrent delivery reserved the key between our read
				// and our insert.
				winner, werr := repo.GetByKey(c.Request.Context(), key, userID)
				if werr == nil && winner != nil && winner.Completed() && !winner.IsExpired() {
					replay(c, winner)
					return
				}
				inProgress(c)
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only successful outcomes are replayable; a failed attempt
		// releases the key so the client may retry for real.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			reservation.ResponseCode = c.Writer.Status()
			reservation.ResponseBody = blw.body.String()
			_ = repo.Update(c.Request.Context(), reservation)
		} else {
			_ = repo.Delete(c.Request.Context(), reservation.ID)
		}
	}
}

func replay(c *gin.Context, ikey *entity.IdempotencyKey) {
	c.Header("X-Idempotency-Replayed", "true")
	c.Data(ikey.ResponseCode, "application/json", []byte(ikey.ResponseBody))
	c.Abort()
}

func inProgress(c *gin.Context) {
	response.ErrorWithCode(c, 409, "A request with this Idempotency-Key is still in progress")
	c.Abort()
}
