package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/selection"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	encodingBase64   = "base64"
	encodingNone     = "none"
	pathSeparator    = "/"
	parentSegment    = ".."
	contentsEndpoint = "repos/%s/%s/contents/%s?ref=%s"
)

// Resolve fetches and decodes the file at filePath. Tree enumeration already established reachability,
// so the request is never a first attempt.
func (client *Client) Resolve(ctx context.Context, coordinates types.Coordinates, filePath string) (types.ResolvedFile, error) {
	authenticated := client.session.HasCredential()
	client.logger.Debug("processing file", zap.String("path", filePath))
	for _, segment := range strings.Split(filePath, pathSeparator) {
		if segment == parentSegment {
			return types.ResolvedFile{}, fmt.Errorf("%w: %s contains a parent directory segment", ErrMalformedPayload, filePath)
		}
	}
	fileContent, directoryContent, response, callErr := client.contents(ctx, coordinates, filePath)
	if callErr != nil {
		return types.ResolvedFile{}, client.failure(ctx, response, callErr, false, authenticated)
	}
	if fileContent == nil {
		return types.ResolvedFile{}, fmt.Errorf("%w: %s returned %d directory entries instead of a file", ErrMalformedPayload, filePath, len(directoryContent))
	}

	rawContent, contentErr := client.rawContent(ctx, fileContent, filePath, authenticated)
	if contentErr != nil {
		return types.ResolvedFile{}, contentErr
	}
	if utils.IsBinary(rawContent) {
		client.logger.Warn("file content looks binary; including best-effort text", zap.String("path", filePath))
	}
	return types.ResolvedFile{
		Path:     filePath,
		Language: selection.Classify(filePath),
		Content:  DecodeText(rawContent),
	}, nil
}

// contents calls the contents endpoint. go-github refuses any path containing "..", so names such as
// "release..notes.md" are requested directly.
func (client *Client) contents(ctx context.Context, coordinates types.Coordinates, filePath string) (*gogithub.RepositoryContent, []*gogithub.RepositoryContent, *gogithub.Response, error) {
	if !strings.Contains(filePath, parentSegment) {
		options := &gogithub.RepositoryContentGetOptions{Ref: coordinates.Reference}
		return client.api.Repositories.GetContents(ctx, coordinates.Owner, coordinates.Repository, filePath, options)
	}
	endpoint := fmt.Sprintf(contentsEndpoint,
		url.PathEscape(coordinates.Owner),
		url.PathEscape(coordinates.Repository),
		escapeContentPath(filePath),
		url.QueryEscape(coordinates.Reference),
	)
	request, requestErr := client.api.NewRequest(http.MethodGet, endpoint, nil)
	if requestErr != nil {
		return nil, nil, nil, requestErr
	}
	var payload json.RawMessage
	response, callErr := client.api.Do(ctx, request, &payload)
	if callErr != nil {
		return nil, nil, response, callErr
	}
	var fileContent gogithub.RepositoryContent
	if fileErr := json.Unmarshal(payload, &fileContent); fileErr == nil {
		return &fileContent, nil, response, nil
	}
	var directoryContent []*gogithub.RepositoryContent
	if directoryErr := json.Unmarshal(payload, &directoryContent); directoryErr == nil {
		return nil, directoryContent, response, nil
	}
	return nil, nil, response, fmt.Errorf("unmarshal contents of %s: unexpected payload", filePath)
}

func escapeContentPath(filePath string) string {
	segments := strings.Split(filePath, pathSeparator)
	for index, segment := range segments {
		segments[index] = url.PathEscape(segment)
	}
	return strings.Join(segments, pathSeparator)
}

func (client *Client) rawContent(ctx context.Context, fileContent *gogithub.RepositoryContent, filePath string, authenticated bool) ([]byte, error) {
	encoding := fileContent.GetEncoding()
	inlineMissing := fileContent.Content == nil || encoding == encodingNone
	if inlineMissing || (fileContent.GetSize() > 0 && *fileContent.Content == "") {
		downloadURL := fileContent.GetDownloadURL()
		if downloadURL == "" {
			return nil, fmt.Errorf("%w: %s has no content field", ErrMalformedPayload, filePath)
		}
		return client.download(ctx, downloadURL, filePath, authenticated)
	}
	if encoding != "" && encoding != encodingBase64 {
		return nil, fmt.Errorf("%w: %s uses unsupported encoding %s", ErrDecodeFailure, filePath, encoding)
	}
	decoded, decodeErr := fileContent.GetContent()
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, filePath, decodeErr)
	}
	return []byte(decoded), nil
}

// download retrieves raw bytes for files the contents endpoint does not inline.
func (client *Client) download(ctx context.Context, downloadURL string, filePath string, authenticated bool) ([]byte, error) {
	client.logger.Debug("downloading raw file content", zap.String("path", filePath))
	request, requestErr := client.api.NewRequest(http.MethodGet, downloadURL, nil)
	if requestErr != nil {
		return nil, fmt.Errorf("%w: %s download URL: %v", ErrMalformedPayload, filePath, requestErr)
	}
	response, callErr := client.api.BareDo(ctx, request)
	if callErr != nil {
		return nil, client.failure(ctx, response, callErr, false, authenticated)
	}
	defer response.Body.Close()
	data, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDecodeFailure, filePath, readErr)
	}
	return data, nil
}
