package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/honeyfile/internal/catalog"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

// FileService exposes the file catalog.
type FileService struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewFileService creates a new FileService.
func NewFileService(c *catalog.Catalog, logger *slog.Logger) *FileService {
	return &FileService{catalog: c, logger: logger}
}

// PublishFile records a stored upload for the caller and credits the bonus.
func (s *FileService) PublishFile(ctx context.Context, req *connect.Request[PublishFileRequest]) (*connect.Response[PublishFileResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("PublishFile request received",
		"account_id", accountID,
		"name", req.Msg.Name,
		"size", req.Msg.Size,
	)

	file, txn, err := s.catalog.Publish(ctx, catalog.Upload{
		OwnerID: accountID,
		Name:    req.Msg.Name,
		Size:    req.Msg.Size,
		Price:   req.Msg.Price,
	})
	if err != nil {
		s.logger.Error("PublishFile failed", "account_id", accountID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&PublishFileResponse{
		File:         toFileInfo(file),
		BonusAwarded: txn.Amount,
		Balance:      txn.BalanceAfter,
	}), nil
}

// GetFile retrieves an active file by ID.
func (s *FileService) GetFile(ctx context.Context, req *connect.Request[GetFileRequest]) (*connect.Response[GetFileResponse], error) {
	if req.Msg.FileID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("file_id required"))
	}

	file, err := s.catalog.Get(ctx, req.Msg.FileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetFileResponse{File: toFileInfo(file)}), nil
}

// ListFiles returns one page of active files.
func (s *FileService) ListFiles(ctx context.Context, req *connect.Request[ListFilesRequest]) (*connect.Response[ListFilesResponse], error) {
	files, total, err := s.catalog.List(ctx, storage.FileFilter{
		Category: req.Msg.Category,
		Query:    req.Msg.Query,
		Page:     models.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset},
	})
	if err != nil {
		s.logger.Error("ListFiles failed", "error", err)
		return nil, connectError(err)
	}

	out := make([]FileInfo, len(files))
	for i, f := range files {
		out[i] = toFileInfo(f)
	}

	s.logger.Info("ListFiles successful", "count", len(out), "total", total)
	return connect.NewResponse(&ListFilesResponse{Files: out, TotalCount: total}), nil
}

// DeleteFile deactivates one of the caller's files.
func (s *FileService) DeleteFile(ctx context.Context, req *connect.Request[DeleteFileRequest]) (*connect.Response[DeleteFileResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.Deactivate(ctx, req.Msg.FileID, accountID); err != nil {
		s.logger.Warn("DeleteFile failed", "file_id", req.Msg.FileID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&DeleteFileResponse{}), nil
}
