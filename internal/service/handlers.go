package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service names, used as URL path prefixes.
const (
	AuthServiceName   = "honeyfile.v1.AuthService"
	LedgerServiceName = "honeyfile.v1.LedgerService"
	FileServiceName   = "honeyfile.v1.FileService"
)

// Fully-qualified procedure paths.
const (
	AuthServiceRegisterProcedure = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure    = "/" + AuthServiceName + "/Login"

	LedgerServiceGetBalanceProcedure            = "/" + LedgerServiceName + "/GetBalance"
	LedgerServiceSettleDownloadProcedure        = "/" + LedgerServiceName + "/SettleDownload"
	LedgerServiceGetStatisticsProcedure         = "/" + LedgerServiceName + "/GetStatistics"
	LedgerServiceGetTransactionHistoryProcedure = "/" + LedgerServiceName + "/GetTransactionHistory"
	LedgerServiceGetEntitlementHistoryProcedure = "/" + LedgerServiceName + "/GetEntitlementHistory"

	FileServicePublishFileProcedure = "/" + FileServiceName + "/PublishFile"
	FileServiceGetFileProcedure     = "/" + FileServiceName + "/GetFile"
	FileServiceListFilesProcedure   = "/" + FileServiceName + "/ListFiles"
	FileServiceDeleteFileProcedure  = "/" + FileServiceName + "/DeleteFile"
)

// NewAuthServiceHandler builds an HTTP handler for AuthService and returns
// the path it should be mounted on.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	return "/" + AuthServiceName + "/", mux
}

// NewLedgerServiceHandler builds an HTTP handler for LedgerService and
// returns the path it should be mounted on.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceGetBalanceProcedure, connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...))
	mux.Handle(LedgerServiceSettleDownloadProcedure, connect.NewUnaryHandler(LedgerServiceSettleDownloadProcedure, svc.SettleDownload, opts...))
	mux.Handle(LedgerServiceGetStatisticsProcedure, connect.NewUnaryHandler(LedgerServiceGetStatisticsProcedure, svc.GetStatistics, opts...))
	mux.Handle(LedgerServiceGetTransactionHistoryProcedure, connect.NewUnaryHandler(LedgerServiceGetTransactionHistoryProcedure, svc.GetTransactionHistory, opts...))
	mux.Handle(LedgerServiceGetEntitlementHistoryProcedure, connect.NewUnaryHandler(LedgerServiceGetEntitlementHistoryProcedure, svc.GetEntitlementHistory, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// NewFileServiceHandler builds an HTTP handler for FileService and returns
// the path it should be mounted on.
func NewFileServiceHandler(svc *FileService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(FileServicePublishFileProcedure, connect.NewUnaryHandler(FileServicePublishFileProcedure, svc.PublishFile, opts...))
	mux.Handle(FileServiceGetFileProcedure, connect.NewUnaryHandler(FileServiceGetFileProcedure, svc.GetFile, opts...))
	mux.Handle(FileServiceListFilesProcedure, connect.NewUnaryHandler(FileServiceListFilesProcedure, svc.ListFiles, opts...))
	mux.Handle(FileServiceDeleteFileProcedure, connect.NewUnaryHandler(FileServiceDeleteFileProcedure, svc.DeleteFile, opts...))
	return "/" + FileServiceName + "/", mux
}

// Client is a typed Connect client for all honeyfile services.
type Client struct {
	Register *connect.Client[RegisterRequest, SessionResponse]
	Login    *connect.Client[LoginRequest, SessionResponse]

	GetBalance            *connect.Client[GetBalanceRequest, GetBalanceResponse]
	SettleDownload        *connect.Client[SettleDownloadRequest, SettleDownloadResponse]
	GetStatistics         *connect.Client[GetStatisticsRequest, GetStatisticsResponse]
	GetTransactionHistory *connect.Client[HistoryRequest, TransactionHistoryResponse]
	GetEntitlementHistory *connect.Client[HistoryRequest, EntitlementHistoryResponse]

	PublishFile *connect.Client[PublishFileRequest, PublishFileResponse]
	GetFile     *connect.Client[GetFileRequest, GetFileResponse]
	ListFiles   *connect.Client[ListFilesRequest, ListFilesResponse]
	DeleteFile  *connect.Client[DeleteFileRequest, DeleteFileResponse]
}

// NewClient creates a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &Client{
		Register: connect.NewClient[RegisterRequest, SessionResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		Login:    connect.NewClient[LoginRequest, SessionResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),

		GetBalance:            connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
		SettleDownload:        connect.NewClient[SettleDownloadRequest, SettleDownloadResponse](httpClient, baseURL+LedgerServiceSettleDownloadProcedure, opts...),
		GetStatistics:         connect.NewClient[GetStatisticsRequest, GetStatisticsResponse](httpClient, baseURL+LedgerServiceGetStatisticsProcedure, opts...),
		GetTransactionHistory: connect.NewClient[HistoryRequest, TransactionHistoryResponse](httpClient, baseURL+LedgerServiceGetTransactionHistoryProcedure, opts...),
		GetEntitlementHistory: connect.NewClient[HistoryRequest, EntitlementHistoryResponse](httpClient, baseURL+LedgerServiceGetEntitlementHistoryProcedure, opts...),

		PublishFile: connect.NewClient[PublishFileRequest, PublishFileResponse](httpClient, baseURL+FileServicePublishFileProcedure, opts...),
		GetFile:     connect.NewClient[GetFileRequest, GetFileResponse](httpClient, baseURL+FileServiceGetFileProcedure, opts...),
		ListFiles:   connect.NewClient[ListFilesRequest, ListFilesResponse](httpClient, baseURL+FileServiceListFilesProcedure, opts...),
		DeleteFile:  connect.NewClient[DeleteFileRequest, DeleteFileResponse](httpClient, baseURL+FileServiceDeleteFileProcedure, opts...),
	}
}
