// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes offcuts marketplace tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/storage"
)

const filterContractURI = "offcuts://filter-contract"

// Server wraps the MCP server with marketplace tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *marketservice.Service
	photos storage.Provider
}

// New creates a new MCP server with all marketplace tools registered.
// photos may be nil, in which case upload_photo is not offered.
func New(svc *marketservice.Service, photos storage.Provider) *Server {
	s := &Server{svc: svc, photos: photos}

	s.mcp = server.NewMCPServer(
		"Offcuts",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	searchOpts := []mcp.ToolOption{
		mcp.WithDescription("Search announcements of surplus material. All filters are optional and combined with AND. " +
			"Text filters are case-insensitive substrings; numeric *_max filters set to 0 mean no upper bound. " +
			"Read get_filter_contract for details."),
	}
	for _, p := range listing.QueryParams {
		switch p {
		case "name", "master", "address":
			searchOpts = append(searchOpts, mcp.WithString(p, mcp.Description("Substring of the announcement "+p)))
		default:
			searchOpts = append(searchOpts, mcp.WithNumber(p, mcp.Description("Inclusive bound "+p)))
		}
	}
	s.mcp.AddTool(mcp.NewTool("search_announcements", searchOpts...), s.searchAnnouncements)

	s.mcp.AddTool(mcp.NewTool("get_announcement",
		mcp.WithDescription("Read one announcement by its owner's login and per-owner number."),
		mcp.WithString("login", mcp.Required(), mcp.Description("Owner login")),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Announcement number, starting at 1")),
	), s.getAnnouncement)

	s.mcp.AddTool(mcp.NewTool("get_user",
		mcp.WithDescription("Read a marketplace user's public profile."),
		mcp.WithString("login", mcp.Required(), mcp.Description("User login")),
	), s.getUser)

	s.mcp.AddTool(mcp.NewTool("get_user_feedback",
		mcp.WithDescription("List the reviews other users left about a user, with 1-5 star estimations."),
		mcp.WithString("login", mcp.Required(), mcp.Description("Reviewed user login")),
	), s.getUserFeedback)

	s.mcp.AddTool(mcp.NewTool("get_announcement_feedback",
		mcp.WithDescription("List the comments left on an announcement."),
		mcp.WithString("login", mcp.Required(), mcp.Description("Owner login")),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Announcement number")),
	), s.getAnnouncementFeedback)

	s.mcp.AddTool(mcp.NewTool("get_filter_contract",
		mcp.WithDescription("Returns the announcement filter contract. "+
			"Call this before search_announcements to build correct filters."),
	), s.getFilterContract)

	if photos != nil {
		s.mcp.AddTool(mcp.NewTool("upload_photo",
			mcp.WithDescription("Store a photo from an http(s) URL or a base64 data: URI. "+
				"Returns a url usable as photo_url of a user or an announcement."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Source URL or data URI (png, jpeg, gif, webp)")),
		), s.uploadPhoto)
	}

	s.mcp.AddResource(
		mcp.NewResource(filterContractURI, "Announcement Filter Contract",
			mcp.WithResourceDescription("Query parameters accepted when searching announcements."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFilterContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool-level error result.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return mcp.NewToolResultError("store unavailable, try again later")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func announcementRef(req mcp.CallToolRequest) (string, int64, error) {
	login, err := req.RequireString("login")
	if err != nil {
		return "", 0, err
	}
	number, err := req.RequireFloat("number")
	if err != nil {
		return "", 0, err
	}
	if number < 1 || number != float64(int64(number)) {
		return "", 0, fmt.Errorf("number must be a positive integer")
	}
	return login, int64(number), nil
}

func (s *Server) searchAnnouncements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	q := url.Values{}
	for _, p := range listing.QueryParams {
		v, ok := args[p]
		if !ok || v == nil {
			continue
		}
		switch tv := v.(type) {
		case string:
			q.Set(p, tv)
		case float64:
			q.Set(p, strconv.FormatFloat(tv, 'f', -1, 64))
		default:
			q.Set(p, fmt.Sprint(tv))
		}
	}
	f, err := listing.ParseQuery(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.ListAnnouncements(ctx, f)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) getAnnouncement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	login, number, err := announcementRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.GetAnnouncement(ctx, login, number)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a), nil
}

func (s *Server) getUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	login, err := req.RequireString("login")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.svc.GetUser(ctx, login)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(u), nil
}

func (s *Server) getUserFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	login, err := req.RequireString("login")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.UserFeedback(ctx, login)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) getAnnouncementFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	login, number, err := announcementRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.AnnouncementFeedback(ctx, login, number)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) getFilterContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FilterContract), nil
}

func (s *Server) readFilterContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      filterContractURI,
			MIMEType: "text/markdown",
			Text:     FilterContract,
		},
	}, nil
}
