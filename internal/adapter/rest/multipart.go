package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
)

const (
	mediaField = "media"
	dataField  = "data"

	maxFieldSize = 1 << 20
	// headroom for text fields and multipart framing on top of the file payload
	formOverhead = 8 << 20
)

// FormLimits bounds an incoming multipart listing form. Files are held in memory
// until uploaded, so MaxTotalSize caps what one request may buffer; zero means
// MaxFiles*MaxFileSize.
type FormLimits struct {
	MaxFiles     int
	MaxFileSize  int64
	MaxTotalSize int64
}

func (l FormLimits) totalSize() int64 {
	perFiles := int64(l.MaxFiles) * l.MaxFileSize
	if l.MaxTotalSize > 0 && l.MaxTotalSize < perFiles {
		return l.MaxTotalSize
	}
	return perFiles
}

func (l FormLimits) maxBody() int64 {
	return l.totalSize() + formOverhead
}

type listingForm struct {
	values   map[string]string
	files    []domain.MediaFile
	buffered int64
}

func (f *listingForm) value(name string) string {
	return f.values[name]
}

// readListingForm streams a multipart body, keeping text fields and the files sent
// under the "media" field. Other file fields are discarded.
func readListingForm(w http.ResponseWriter, r *http.Request, limits FormLimits) (*listingForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.maxBody())

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expected multipart/form-data: %w", errBadForm, err)
	}

	form := &listingForm{values: make(map[string]string)}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, formError(err)
		}

		if err := form.add(part, limits); err != nil {
			part.Close()
			return nil, err
		}
		part.Close()
	}
}

func (f *listingForm) add(part *multipart.Part, limits FormLimits) error {
	name := part.FormName()
	if name == "" {
		return nil
	}

	if part.FileName() == "" {
		b, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
		if err != nil {
			return formError(err)
		}
		if len(b) > maxFieldSize {
			return fmt.Errorf("%w: field %q too large", errBadForm, name)
		}
		if _, seen := f.values[name]; !seen {
			f.values[name] = string(b)
		}
		return nil
	}

	if name != mediaField {
		return nil
	}
	if len(f.files) >= limits.MaxFiles {
		return fmt.Errorf("%w: at most %d files", errTooManyFiles, limits.MaxFiles)
	}

	budget := min(limits.MaxFileSize, limits.totalSize()-f.buffered)
	data, err := io.ReadAll(io.LimitReader(part, budget+1))
	if err != nil {
		return formError(err)
	}
	if int64(len(data)) > limits.MaxFileSize {
		return fmt.Errorf("%w: %q exceeds %d bytes", errFileTooLarge, part.FileName(), limits.MaxFileSize)
	}
	if int64(len(data)) > budget {
		return fmt.Errorf("%w: media exceeds %d bytes per request", errFileTooLarge, limits.totalSize())
	}
	f.buffered += int64(len(data))

	f.files = append(f.files, domain.MediaFile{
		Data:         data,
		ContentType:  part.Header.Get("Content-Type"),
		OriginalName: part.FileName(),
	})
	return nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body exceeds %d bytes", errFileTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %w", errBadForm, err)
}

// flexString accepts either a JSON string or a JSON number, keeping the raw text so
// the usecase applies one parsing rule to both form and JSON input.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: expected a number or a string", domain.ErrInvalidType)
	}
	*f = flexString(n.String())
	return nil
}

// updatePayload is the JSON document carried in the "data" field of an update.
type updatePayload struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	Rent         *flexString `json:"rent"`
	Rooms        *string     `json:"rooms"`
	Location     *string     `json:"location"`
	Status       *string     `json:"status"`
	ImagesRemove []string    `json:"imagesRemove"`
}

func decodeUpdatePayload(raw []byte) (*updatePayload, error) {
	var p updatePayload
	if len(raw) == 0 {
		return &p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		if errors.Is(err, domain.ErrInvalidType) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: data: %w", domain.ErrInvalidType, err)
	}
	return &p, nil
}
