package catalog

import (
	"net/http"

	"github.com/yourusername/travel-packages/internal/apperr"
)

var (
	// ErrNotFound は指定 ID のパッケージが存在しないことを表します。
	ErrNotFound = apperr.New(http.StatusNotFound, "PACKAGE_NOT_FOUND", "Package not found")

	// ErrInvalidID は ID の形式が不正であることを表します（存在しない ID とは区別します）。
	ErrInvalidID = apperr.New(http.StatusBadRequest, "INVALID_ID", "Invalid package id")
)
