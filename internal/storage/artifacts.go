package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ytprompt/internal/models"
)

// ErrArtifactNotFound は成果物ファイルが存在しないことを示す
var ErrArtifactNotFound = errors.New("artifact not found")

const artifactPrefix = "output_"

// 検索順（txtを優先）
var artifactFormats = []string{models.FormatText, models.FormatJSON}

// ArtifactStore は成果物ファイルの保存先ディレクトリを管理する
type ArtifactStore struct {
	dir string
}

// NewArtifactStore は保存先ディレクトリを作成してArtifactStoreを返す
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir は保存先ディレクトリを返す
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Path は成果物ファイルのパスを返す
func (s *ArtifactStore) Path(fileID, format string) string {
	return filepath.Join(s.dir, artifactPrefix+fileID+"."+format)
}

// Save は成果物を指定フォーマットで保存し、パスを返す
// 一時ファイルに書き込んでからリネームするため、失敗時に不完全なファイルは残らない
func (s *ArtifactStore) Save(result *models.ProcessingResult, format string) (string, error) {
	if !validFileID(result.FileID) {
		return "", fmt.Errorf("invalid file id: %q", result.FileID)
	}

	format = models.NormalizeFormat(format)
	var data []byte
	if format == models.FormatJSON {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		data = bytes.TrimRight(buf.Bytes(), "\n")
	} else {
		data = []byte(result.Prompt)
	}

	tmp, err := os.CreateTemp(s.dir, ".output_*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	// CreateTempは0600で作成するため通常のファイル権限に戻す
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	path := s.Path(result.FileID, format)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

// Find は成果物ファイルを検索し、パスとフォーマットを返す
func (s *ArtifactStore) Find(fileID string) (string, string, error) {
	if !validFileID(fileID) {
		return "", "", ErrArtifactNotFound
	}
	for _, format := range artifactFormats {
		path := s.Path(fileID, format)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, format, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", "", err
		}
	}
	return "", "", ErrArtifactNotFound
}

// List は保存済みの成果物一覧を返す（新しい順）
func (s *ArtifactStore) List() ([]models.ArtifactInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []models.ArtifactInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []models.ArtifactInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, artifactPrefix) {
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".txt" && ext != ".json" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// 列挙中に削除された
			continue
		}

		fileID := strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), ext)
		files = append(files, models.ArtifactInfo{
			FileID:      fileID,
			Filename:    name,
			Size:        info.Size(),
			Created:     info.ModTime(),
			DownloadURL: models.DownloadURL(fileID),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Created.After(files[j].Created)
	})
	return files, nil
}

// Delete は指定IDの成果物を全フォーマット分削除する
// 1つも存在しなかった場合はfalseを返す
func (s *ArtifactStore) Delete(fileID string) (bool, error) {
	if !validFileID(fileID) {
		return false, nil
	}

	deleted := false
	for _, format := range artifactFormats {
		err := os.Remove(s.Path(fileID, format))
		if err == nil {
			deleted = true
			continue
		}
		if !os.IsNotExist(err) {
			return deleted, err
		}
	}
	return deleted, nil
}

// validFileID は標準形式（36文字）のUUIDのみを許可する
func validFileID(fileID string) bool {
	if len(fileID) != 36 {
		return false
	}
	_, err := uuid.Parse(fileID)
	return err == nil
}
