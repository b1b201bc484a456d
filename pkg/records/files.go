package records

import (
	"context"
	"fmt"
	"io"
)

// File retrieves the binary contents of a single-file column of record
// id. Возвращает тело ответа и content type; закрыть reader обязан
// вызывающий.
func (r *API[T]) File(ctx context.Context, id RecordID, column string) (io.ReadCloser, string, error) {
	path := fmt.Sprintf("%s/%s/%s/file/%s", recordAPI, r.name, id.String(), column)
	return r.fetchFile(ctx, path)
}

// FileAt retrieves one entry of a multi-file column by its index.
func (r *API[T]) FileAt(ctx context.Context, id RecordID, column string, index int) (io.ReadCloser, string, error) {
	path := fmt.Sprintf("%s/%s/%s/files/%s/%d", recordAPI, r.name, id.String(), column, index)
	return r.fetchFile(ctx, path)
}

func (r *API[T]) fetchFile(ctx context.Context, path string) (io.ReadCloser, string, error) {
	resp, err := r.client.Fetch(ctx, path, nil)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
