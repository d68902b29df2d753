package receipt

import (
	"context"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/logging"
)

// Service fetches a photo from the transport and reads it with the OCR collaborator.
type Service struct {
	fetcher Fetcher
	reader  Reader
	log     *logging.Logger
}

func NewService(fetcher Fetcher, reader Reader, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{fetcher: fetcher, reader: reader, log: log}
}

// Ingest returns a normalized receipt or an error; it never touches session state.
func (s *Service) Ingest(ctx context.Context, ref PhotoRef) (*Receipt, error) {
	image, _, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "fetch receipt photo")
	}
	filename := ref.Filename
	if filename == "" {
		if u, perr := url.Parse(ref.URL); perr == nil {
			filename = path.Base(u.Path)
		}
	}
	doc, err := s.reader.Read(ctx, image, filename)
	if err != nil {
		return nil, err
	}
	rec, err := Normalize(doc)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("items", len(rec.Items)).
		Float64("total", rec.Total).
		Str("merchant", rec.Merchant).
		Msg("receipt read")
	return rec, nil
}
