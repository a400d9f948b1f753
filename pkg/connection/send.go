package connection

import (
	"context"
	"fmt"
)

// Send performs req and decodes every item of the response into T. It
// returns the decoded items and the count reported by the backend.
func Send[T any](c Connection, ctx context.Context, req *Request) ([]T, int, error) {
	page, err := c.Send(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if page == nil {
		return nil, 0, nil
	}

	items := make([]T, 0, len(page.Items))
	for i, raw := range page.Items {
		var item T
		if err := c.GetUnmarshaler().Unmarshal(raw, &item); err != nil {
			return nil, 0, fmt.Errorf("Send: error unmarshaling item %d: %w", i, err)
		}
		items = append(items, item)
	}

	return items, page.Count, nil
}
