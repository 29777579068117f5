package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vending/internal/usecase"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// 公開URLのプレフィックス（echoのStaticと合わせる）
const PublicPrefix = "/uploads/"

// LocalImageStore はアップロード画像をローカルディレクトリに保存する。
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Save は中身を見て画像か判定し、ランダムなファイル名で保存して公開URLを返す。
func (s *LocalImageStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", usecase.ErrNotImage
	}

	name := uuid.NewString() + mt.Extension()
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return PublicPrefix + name, nil
}

// Remove は/uploads/配下の画像だけ消す。外部URLは何もしない。
func (s *LocalImageStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(url, PublicPrefix) {
		return nil
	}

	//ディレクトリの外を指させない
	name := filepath.Base(strings.TrimPrefix(url, PublicPrefix))
	if name == "." || name == string(filepath.Separator) {
		return nil
	}

	return os.Remove(filepath.Join(s.dir, name))
}
