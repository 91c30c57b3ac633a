package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lunagic/agora/agoraservices/vault"
)

var ErrInvalidPath = errors.New("invalid storage path")

// DriverLocal keeps files in a directory and serves presigned downloads
// through its ServeHTTP method, mounted at BaseEndpoint.
type DriverLocal struct {
	Directory    string
	BaseEndpoint string
	Vault        vault.Vault
}

func NewDriverLocal(directory string, baseEndpoint string, vault vault.Vault) (*DriverLocal, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, err
	}

	return &DriverLocal{
		Directory:    directory,
		BaseEndpoint: strings.TrimSuffix(baseEndpoint, "/"),
		Vault:        vault,
	}, nil
}

func (driver *DriverLocal) absolutePath(filePath string) (string, error) {
	clean := filepath.Clean("/" + filePath)
	if clean == "/" {
		return "", ErrInvalidPath
	}

	return filepath.Join(driver.Directory, clean), nil
}

func (driver *DriverLocal) Get(ctx context.Context, filePath string) (io.ReadCloser, error) {
	path, err := driver.absolutePath(filePath)
	if err != nil {
		return nil, err
	}

	return os.Open(path)
}

func (driver *DriverLocal) Put(ctx context.Context, filePath string, payload io.Reader) error {
	path, err := driver.absolutePath(filePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	_, err = io.Copy(file, payload)

	return err
}

func (driver *DriverLocal) Delete(ctx context.Context, filePath string) error {
	path, err := driver.absolutePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (driver *DriverLocal) Exists(ctx context.Context, filePath string) (bool, error) {
	path, err := driver.absolutePath(filePath)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (driver *DriverLocal) IsReady(ctx context.Context) error {
	info, err := os.Stat(driver.Directory)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return ErrInvalidPath
	}

	return nil
}

type signedLink struct {
	ExpiresAt time.Time
	Path      string
}

func (driver *DriverLocal) PreSignedURL(ctx context.Context, filePath string, expiration time.Duration) (string, error) {
	message, err := json.Marshal(signedLink{
		ExpiresAt: time.Now().Add(expiration),
		Path:      filePath,
	})
	if err != nil {
		return "", err
	}

	signature, err := driver.Vault.Encrypt(message)
	if err != nil {
		return "", err
	}

	return driver.BaseEndpoint + "/_presigned?" + url.Values{
		"signature": []string{string(signature)},
	}.Encode(), nil
}

func (driver *DriverLocal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	forbidden := func() {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	}

	message, err := driver.Vault.Decrypt([]byte(r.URL.Query().Get("signature")))
	if err != nil {
		forbidden()
		return
	}

	link := signedLink{}
	if err := json.Unmarshal(message, &link); err != nil {
		forbidden()
		return
	}

	if time.Now().After(link.ExpiresAt) {
		forbidden()
		return
	}

	reader, err := driver.Get(r.Context(), link.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	_, _ = io.Copy(w, reader)
}

func (driver *DriverLocal) PublicLink(ctx context.Context, filePath string) (string, error) {
	return driver.BaseEndpoint + "/" + strings.TrimPrefix(filePath, "/"), nil
}
