package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gofiber/fiber/v2"
)

// errorStatus maps every sentinel error to its stable (status, message)
// pair. NotFound covers missing, not-owned and not-public records alike so
// existence is never leaked to non-owners.
var errorStatus = []struct {
	err     error
	code    int
	message string
}{
	{common.ErrorUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
	{common.ErrorNotFound, fiber.StatusNotFound, "Not found"},
	{common.ErrParentNotFound, fiber.StatusNotFound, "Parent not found"},
	{common.ErrMissingName, fiber.StatusBadRequest, "Missing name"},
	{common.ErrMissingType, fiber.StatusBadRequest, "Missing type"},
	{common.ErrMissingData, fiber.StatusBadRequest, "Missing data"},
	{common.ErrParentNotFolder, fiber.StatusBadRequest, "Parent is not a folder"},
	{common.ErrMissingEmail, fiber.StatusBadRequest, "Missing email"},
	{common.ErrMissingPassword, fiber.StatusBadRequest, "Missing password"},
	{common.ErrAlreadyExists, fiber.StatusBadRequest, "Already exist"},
	{common.ErrFolderWithoutContent, fiber.StatusBadRequest, "A folder doesn't have content"},
}

// writeError renders a service error as the JSON body the API promises.
func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.code).JSON(fiber.Map{"error": e.message})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
