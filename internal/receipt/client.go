package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/logging"
)

const processPath = "/api/v1/receipts/process"

// Reader is the OCR collaborator: image in, receipt document out.
type Reader interface {
	Read(ctx context.Context, image []byte, filename string) (*Document, error)
}

// Client talks to the ShareTab backend OCR endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// uploadName maps a transport filename to the upload name and MIME type the
// backend expects. "jpg" is sent as "jpeg" and a missing extension as jpeg.
func uploadName(filename string) (name, contentType string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" || ext == "jpg" {
		ext = "jpeg"
	}
	return "receipt." + ext, "image/" + ext
}

func (c *Client) Read(ctx context.Context, image []byte, filename string) (*Document, error) {
	name, contentType := uploadName(filename)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="receipt"; filename="%s"`, name))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, errors.Wrap(err, "create multipart part")
	}
	if _, err := part.Write(image); err != nil {
		return nil, errors.Wrap(err, "write image part")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, &body)
	if err != nil {
		return nil, errors.Wrap(err, "build ocr request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call ocr backend")
	}
	defer resp.Body.Close()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(image)).
		Dur("elapsed", time.Since(start)).
		Msg("ocr backend responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("ocr backend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode ocr response")
	}
	return &doc, nil
}
