package gateway

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/server"
	"github.com/SmartFleetPass/SmartFleetPass/internal/inspection"
	"github.com/SmartFleetPass/SmartFleetPass/internal/lifecycle"
	"github.com/gin-gonic/gin"
)

// 单次提交 multipart 总大小上限。
const maxSubmissionBytes = 32 << 20

// submission 出车/回场提交的公共字段。
type submission struct {
	Folio    string
	PassID   string
	Mileage  *int64
	Fuel     int
	Comment  string
	At       *time.Time
	Evidence []lifecycle.EvidenceItem
}

// SubmitDeparture POST /api/v1/passes/departure
// multipart：folio 或 pass_id、mileage、fuel、comment，
// 证据文件字段名形如 photo.front / signature.conductor。
func (h *Handler) SubmitDeparture(c *gin.Context) {
	sub, err := parseSubmission(c)
	if err != nil {
		writeError(c, err)
		return
	}

	view, err := h.co.SubmitDeparture(c.Request.Context(), lifecycle.DepartureRequest{
		Folio:    sub.Folio,
		PassID:   sub.PassID,
		Mileage:  sub.Mileage,
		Fuel:     sub.Fuel,
		Comment:  sub.Comment,
		At:       sub.At,
		Actor:    actorOf(c),
		Evidence: sub.Evidence,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitArrival POST /api/v1/passes/arrival
func (h *Handler) SubmitArrival(c *gin.Context) {
	sub, err := parseSubmission(c)
	if err != nil {
		writeError(c, err)
		return
	}

	view, err := h.co.SubmitArrival(c.Request.Context(), lifecycle.ArrivalRequest{
		Folio:    sub.Folio,
		PassID:   sub.PassID,
		Mileage:  sub.Mileage,
		Fuel:     sub.Fuel,
		Comment:  sub.Comment,
		At:       sub.At,
		Actor:    actorOf(c),
		Evidence: sub.Evidence,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetPass GET /api/v1/passes/:id
func (h *Handler) GetPass(c *gin.Context) {
	view, err := h.co.GetPassView(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveInspection DELETE /api/v1/inspections/:id
// 只下线台账记录，证据文件保留作审计。
func (h *Handler) RemoveInspection(c *gin.Context) {
	if err := h.ledger.Remove(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// GetEvidence GET /api/v1/evidence/:locator
// 画廊/PDF 层按 locator 取原始字节。
func (h *Handler) GetEvidence(c *gin.Context) {
	data, err := h.store.Resolve(c.Request.Context(), c.Param("locator"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func parseSubmission(c *gin.Context) (*submission, error) {
	if err := c.Request.ParseMultipartForm(maxSubmissionBytes); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid multipart form", err)
	}
	form := c.Request.MultipartForm
	if form == nil {
		return nil, errs.New(errs.KindValidation, "multipart form required")
	}

	sub := &submission{
		Folio:   strings.TrimSpace(formValue(form, "folio")),
		PassID:  strings.TrimSpace(formValue(form, "pass_id")),
		Comment: strings.TrimSpace(formValue(form, "comment")),
	}

	if v := strings.TrimSpace(formValue(form, "mileage")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errs.Field(errs.KindValidation, "mileage", "mileage must be an integer")
		}
		sub.Mileage = &n
	}

	fuelStr := strings.TrimSpace(formValue(form, "fuel"))
	if fuelStr == "" {
		return nil, errs.Field(errs.KindValidation, "fuel", "fuel required")
	}
	fuel, err := strconv.Atoi(fuelStr)
	if err != nil {
		return nil, errs.Field(errs.KindValidation, "fuel", "fuel must be an integer")
	}
	sub.Fuel = fuel

	if v := strings.TrimSpace(formValue(form, "at")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errs.Field(errs.KindValidation, "at", "at must be RFC3339")
		}
		sub.At = &t
	}

	// 文件字段名约定：<type>.<part>，例如 photo.front / signature.conductor
	for key, fhs := range form.File {
		typ, part, ok := splitEvidenceKey(key)
		if !ok {
			return nil, errs.Field(errs.KindValidation, key, "evidence field must be photo.<part> or signature.<part>")
		}
		for _, fh := range fhs {
			data, err := readFileHeader(fh)
			if err != nil {
				return nil, errs.Wrap(errs.KindValidation, fmt.Sprintf("failed to read evidence %s", key), err)
			}
			sub.Evidence = append(sub.Evidence, lifecycle.EvidenceItem{
				Part:     part,
				Type:     typ,
				Bytes:    data,
				FileName: fh.Filename,
			})
		}
	}

	return sub, nil
}

func splitEvidenceKey(key string) (inspection.RecordType, string, bool) {
	prefix, part, found := strings.Cut(key, ".")
	if !found || strings.TrimSpace(part) == "" {
		return "", "", false
	}
	typ := inspection.RecordType(prefix)
	if !inspection.ValidType(typ) {
		return "", "", false
	}
	return typ, strings.TrimSpace(part), true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// actorOf 提交人：开了鉴权时取 JWT subject，否则为空。
func actorOf(c *gin.Context) string {
	if ai, ok := server.AuthFromContext(c); ok {
		return ai.Subject
	}
	return ""
}
