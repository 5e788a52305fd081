package minio

import (
	"bytes"
	"context"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// InvoiceRepo хранит сформированные счета в MinIO.
type InvoiceRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewInvoiceRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *InvoiceRepo {
	return &InvoiceRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает документ в бакет счетов и возвращает ключ объекта.
// Повторная загрузка по тому же ключу перезаписывает счёт.
func (i *InvoiceRepo) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	info, err := i.mc.PutObject(ctx, i.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}
