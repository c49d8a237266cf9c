// Package httpapi exposes the service layer over the REST surface. It only
// extracts parameters from requests and maps service errors to status
// codes; all domain rules live in the services.
package httpapi

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// tokenHeader carries the session token on authenticated calls.
const tokenHeader = "X-Token"

// Handler binds the HTTP routes to the services.
type Handler struct {
	app   *services.AppService
	users *services.UserService
	files *services.FileService
}

// NewHandler constructs a Handler.
func NewHandler(app *services.AppService, users *services.UserService, files *services.FileService) *Handler {
	return &Handler{app: app, users: users, files: files}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/status", h.getStatus)
	r.Get("/stats", h.getStats)

	r.Post("/users", h.postUser)
	r.Get("/users/me", h.getMe)
	r.Get("/connect", h.getConnect)
	r.Get("/disconnect", h.getDisconnect)

	r.Post("/files", h.postFile)
	r.Get("/files", h.getFiles)
	r.Get("/files/:id", h.getFile)
	r.Put("/files/:id/publish", h.putPublish)
	r.Put("/files/:id/unpublish", h.putUnpublish)
	r.Get("/files/:id/data", h.getFileData)
}

func (h *Handler) getStatus(c *fiber.Ctx) error {
	dbAlive, redisAlive := h.app.Status(c.UserContext())
	return c.JSON(fiber.Map{"redis": redisAlive, "db": dbAlive})
}

func (h *Handler) getStats(c *fiber.Ctx) error {
	stats, err := h.app.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) postUser(c *fiber.Ctx) error {
	var req registerRequest
	// An empty or malformed body falls through to field validation.
	_ = c.BodyParser(&req)

	user, err := h.users.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.ID, "email": user.Email})
}

func (h *Handler) getMe(c *fiber.Ctx) error {
	user, err := h.users.Me(c.UserContext(), c.Get(tokenHeader))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"id": user.ID, "email": user.Email})
}

func (h *Handler) getConnect(c *fiber.Ctx) error {
	email, password, ok := basicCredentials(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	token, err := h.users.Login(c.UserContext(), email, password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

func (h *Handler) getDisconnect(c *fiber.Ctx) error {
	if err := h.users.Logout(c.UserContext(), c.Get(tokenHeader)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type createFileRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID string  `json:"parentId"`
	IsPublic bool    `json:"isPublic"`
	Data     *string `json:"data"`
}

func (h *Handler) postFile(c *fiber.Ctx) error {
	var req createFileRequest
	_ = c.BodyParser(&req)

	node, err := h.files.Create(c.UserContext(), c.Get(tokenHeader), &services.CreateRequest{
		Name:     req.Name,
		Kind:     req.Type,
		ParentID: req.ParentID,
		Data:     req.Data,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(node.Describe())
}

func (h *Handler) getFile(c *fiber.Ctx) error {
	node, err := h.files.Get(c.UserContext(), c.Get(tokenHeader), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(node.Describe())
}

func (h *Handler) getFiles(c *fiber.Ctx) error {
	// A malformed page value defaults to the first page.
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 0
	}

	nodesList, err := h.files.List(c.UserContext(), c.Get(tokenHeader), c.Query("parentId"), page)
	if err != nil {
		return writeError(c, err)
	}

	descriptors := make([]*models.Descriptor, 0, len(nodesList))
	for _, node := range nodesList {
		descriptors = append(descriptors, node.Describe())
	}
	return c.JSON(descriptors)
}

func (h *Handler) putPublish(c *fiber.Ctx) error {
	return h.setVisibility(c, true)
}

func (h *Handler) putUnpublish(c *fiber.Ctx) error {
	return h.setVisibility(c, false)
}

func (h *Handler) setVisibility(c *fiber.Ctx, public bool) error {
	node, err := h.files.SetVisibility(c.UserContext(), c.Get(tokenHeader), c.Params("id"), public)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(node.Describe())
}

func (h *Handler) getFileData(c *fiber.Ctx) error {
	content, err := h.files.GetContent(c.UserContext(), c.Get(tokenHeader), c.Params("id"), c.Query("size"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, content.ContentType)
	return c.Send(content.Data)
}

// basicCredentials extracts email and password from a Basic authorization
// header.
func basicCredentials(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(decoded), ":")
	return email, password, ok
}
