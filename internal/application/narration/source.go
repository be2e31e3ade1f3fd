package narration

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "hydraskript-api/pkg/errors"
)

// 支持的朗读源文件扩展名
const (
	extText = ".txt"
	extPDF  = ".pdf"
)

// readSource 读取上传内容，超过 limit 字节返回 InputTooLarge
func readSource(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("read source: " + err.Error())
	}
	if int64(len(data)) > limit {
		return nil, apperrors.ErrInputTooLarge.WithDetail(fmt.Sprintf("source exceeds %d bytes", limit))
	}
	return data, nil
}

// extractText 按扩展名提取纯文本
func extractText(filename string, data []byte) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case extText, "":
		return string(data), nil
	case extPDF:
		return parsePDF(data)
	default:
		return "", apperrors.ErrInvalidParam.WithDetail("unsupported source type: " + ext)
	}
}

func parsePDF(data []byte) (text string, err error) {
	// 损坏的 PDF 可能在解析库内部 panic
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unreadable pdf: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.ErrInvalidParam.WithDetail("open pdf: " + err.Error())
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", apperrors.ErrInvalidParam.WithDetail("no extractable text found in pdf")
	}
	return normalizeWhitespace(b.String()), nil
}

func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
