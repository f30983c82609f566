// Package mediafile picks the file to fetch from a media response.
package mediafile

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"cobaltctl/internal/errs"
	"cobaltctl/pkg/cobalt"
)

// NoItem selects the picker audio track instead of a picker entry.
const NoItem = -1

// Target returns the source URL and a local file name for resp.
//
// A redirect yields its URL and filename. A picker yields entry item, or its audio
// track when item is NoItem. Error responses and out of range items wrap
// errs.ErrNotDownloadable; names that would leave a directory wrap errs.ErrUnsafeFilename.
func Target(resp cobalt.Response, item int) (string, string, error) {
	switch r := resp.(type) {
	case *cobalt.RedirectResponse:
		name, err := SafeName(r.Filename)
		if err != nil {
			return "", "", err
		}

		return r.URL, name, nil
	case *cobalt.PickerResponse:
		if item == NoItem {
			if r.Audio == nil {
				return "", "", fmt.Errorf("%w: picker has %d items, choose one", errs.ErrNotDownloadable, len(r.Picker))
			}

			name := ""
			if r.AudioFilename != nil {
				name = *r.AudioFilename
			}

			name, err := SafeName(fallbackName(name, *r.Audio, "audio"))
			if err != nil {
				return "", "", err
			}

			return *r.Audio, name, nil
		}

		if item < 0 || item >= len(r.Picker) {
			return "", "", fmt.Errorf("%w: item %d out of range [0, %d)", errs.ErrNotDownloadable, item, len(r.Picker))
		}

		entry := r.Picker[item]

		name, err := SafeName(fallbackName("", entry.URL, entry.Type+"-"+strconv.Itoa(item)))
		if err != nil {
			return "", "", err
		}

		return entry.URL, name, nil
	case *cobalt.ErrorResponse:
		return "", "", fmt.Errorf("%w: instance error %s", errs.ErrNotDownloadable, r.Error.Code)
	default:
		return "", "", errs.ErrNotDownloadable
	}
}

// fallbackName prefers name, then the last path segment of rawURL, then def.
func fallbackName(name, rawURL, def string) string {
	if name != "" {
		return name
	}

	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
			return base
		}
	}

	return def
}

// SafeName rejects names that would leave the directory they are joined to.
func SafeName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", errs.ErrUnsafeFilename, name)
	}

	return name, nil
}
