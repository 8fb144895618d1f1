package response

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/service"
	stdjson "encoding/json"
	"errors"
	"io"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	TooManyRequests     = 429
	InternalServerError = 500
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	FailWithData(c, businessCode, message, nil)
}

// FailWithData 失败返回并附带数据
func FailWithData(c *gin.Context, businessCode int, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    data,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, "参数错误")
		return
	}

	if isJSONError(err) {
		Fail(c, BadRequest, "Json错误")
		return
	}

	var cooldown *otp.CooldownError
	if errors.As(err, &cooldown) {
		FailWithData(c, TooManyRequests, cooldown.Error(), dto.CooldownDTO{
			RemainingSeconds: cooldown.RemainingSeconds(),
		})
		return
	}

	code, ok := service.ErrorCode(err)
	if !ok {
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
		Fail(c, InternalServerError, service.UnExpectedError.Error())
		return
	}
	Fail(c, code, err.Error())
}

// isJSONError gin 绑定使用标准库解码，其余场景使用 go-json
func isJSONError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var stdType *stdjson.UnmarshalTypeError
	var stdSyntax *stdjson.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	return errors.As(err, &stdType) || errors.As(err, &stdSyntax) ||
		errors.As(err, &typeErr) || errors.As(err, &syntaxErr)
}
