package router

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

// Request is what a Handler receives.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ClientIP is the caller address after the IP middleware rewrote
// RemoteAddr. A host:port form is tolerated for handlers used without it.
func (r *Request) ClientIP() string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DecodeBody strictly decodes a single JSON value into dst. Unknown fields
// and trailing data are rejected as an invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// StreamSingleFile walks a multipart body up to the part named field and
// returns it unbuffered. Parts before it are drained. The caller closes
// the part.
func (r *Request) StreamSingleFile(field string) (*multipart.Part, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, goerror.NewInvalidFormat(fmt.Sprintf("Multipart field %q is required", field))
		}
		if err != nil {
			return nil, goerror.NewInvalidFormat()
		}
		if part.FormName() == field {
			return part, nil
		}

		_, errDrain := io.Copy(io.Discard, part)
		if err := errors.Join(errDrain, part.Close()); err != nil {
			return nil, goerror.NewInvalidFormat()
		}
	}
}
