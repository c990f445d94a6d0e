package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// ObjectStore implements interfaces.ObjectStore against the Firebase Storage
// REST API.
type ObjectStore struct {
	client  *restClient
	baseURL string
	bucket  string
	logger  arbor.ILogger
}

// NewObjectStore creates a token-scoped Storage client
func NewObjectStore(cfg *common.Config, token string, logger arbor.ILogger) *ObjectStore {
	return &ObjectStore{
		client:  newRESTClient(&cfg.Uploader, token, logger),
		baseURL: cfg.Firebase.StorageURL,
		bucket:  cfg.Firebase.StorageBucket,
		logger:  logger,
	}
}

type uploadResponse struct {
	Name           string `json:"name"`
	MediaLink      string `json:"mediaLink"`
	DownloadTokens string `json:"downloadTokens"`
}

// Put uploads data at path and returns a public download URL. The URL comes
// from mediaLink when present, otherwise it is built from the first download
// token.
func (o *ObjectStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	uploadURL := fmt.Sprintf("%s/b/%s/o?uploadType=media&name=%s", o.baseURL, o.bucket, url.QueryEscape(path))

	respBody, status, err := o.client.do(ctx, http.MethodPost, uploadURL, data, contentType)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("upload %s failed with status %d: %s", path, status, truncate(respBody))
	}

	var resp uploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	if resp.MediaLink != "" {
		return resp.MediaLink, nil
	}
	if resp.DownloadTokens != "" {
		token := strings.Split(resp.DownloadTokens, ",")[0]
		return fmt.Sprintf("%s/b/%s/o/%s?alt=media&token=%s", o.baseURL, o.bucket, url.QueryEscape(path), token), nil
	}
	return "", fmt.Errorf("upload response for %s carried no media link or download token", path)
}

// Delete removes the object at path. A missing object is not an error.
func (o *ObjectStore) Delete(ctx context.Context, path string) error {
	objectURL := fmt.Sprintf("%s/b/%s/o/%s", o.baseURL, o.bucket, url.QueryEscape(path))

	respBody, status, err := o.client.do(ctx, http.MethodDelete, objectURL, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete object %s failed with status %d: %s", path, status, truncate(respBody))
	}
	return nil
}

var _ interfaces.ObjectStore = (*ObjectStore)(nil)
