package metric

import (
	"context"
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"time"
)

func database(as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.BunDB.NewSelect().
		Model((*model.Calendar)(nil)).
		Where("id = ?", "").
		Exists(context.Background()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
