package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/raidboard/raidboard-server/internal/domain"
)

const raidsPath = "/api/v1/channels/{channel}/raids"

var raidSecurity = []map[string][]string{{"member": {}}}

func (s *Server) registerRaidRoutes() {
	registerRaid(s.api, "createRaid", http.MethodPost, "", "Create raid",
		"Opens a raid with the caller as its first joined attendee", http.StatusCreated, s.handleCreateRaid)
	registerRaid(s.api, "listRaids", http.MethodGet, "", "List raids",
		"Returns the channel's live raids, oldest first", 0, s.handleListRaids)
	registerRaid(s.api, "resolveRaid", http.MethodPost, "/resolve", "Resolve raid",
		"Finds the first token naming a raid, falling back to the caller's current raid", 0, s.handleResolveRaid)
	registerRaid(s.api, "getRaid", http.MethodGet, "/{raid}", "Get raid",
		"Returns a raid; \"current\" names the caller's last touched raid", 0, s.handleGetRaid)
	registerRaid(s.api, "deleteRaid", http.MethodDelete, "/{raid}", "Delete raid",
		"Removes a raid and clears every current-raid pointer to it", http.StatusNoContent, s.handleDeleteRaid)
	registerRaid(s.api, "touchRaid", http.MethodPost, "/{raid}/touch", "Touch raid",
		"Makes the raid the caller's current raid", http.StatusNoContent, s.handleTouchRaid)

	registerRaid(s.api, "joinRaid", http.MethodPost, "/{raid}/join", "Join raid",
		"Adds the caller as a joined attendee", 0, s.handleJoinRaid)
	registerRaid(s.api, "interestedInRaid", http.MethodPost, "/{raid}/interested", "Mark interested",
		"Adds the caller as an interested attendee", 0, s.handleInterested)
	registerRaid(s.api, "leaveRaid", http.MethodPost, "/{raid}/leave", "Leave raid",
		"Removes the caller from the roster", 0, s.handleLeaveRaid)
	registerRaid(s.api, "setStatus", http.MethodPut, "/{raid}/status", "Set status",
		"Moves the caller to another attendee status", 0, s.handleSetStatus)
	registerRaid(s.api, "setAdditional", http.MethodPut, "/{raid}/additional", "Set guests",
		"Sets how many guests the caller brings", 0, s.handleSetAdditional)

	registerRaid(s.api, "setHatchTime", http.MethodPut, "/{raid}/hatch-time", "Set hatch time",
		"Sets when the egg hatches; derives the end time when none is set", 0, s.handleSetHatchTime)
	registerRaid(s.api, "setStartTime", http.MethodPut, "/{raid}/start-time", "Set start time",
		"Sets when the group starts the raid", 0, s.handleSetStartTime)
	registerRaid(s.api, "setEndTime", http.MethodPut, "/{raid}/end-time", "Set end time",
		"Sets when the raid ends", 0, s.handleSetEndTime)
	registerRaid(s.api, "reportEndTime", http.MethodPost, "/{raid}/end-time/report", "Report end time",
		"Records a raw end time from a collaborator; unusable values mark the end time invalid", 0, s.handleReportEndTime)

	registerRaid(s.api, "setLocation", http.MethodPut, "/{raid}/location", "Set location",
		"Sets the gym by ID or best name match", 0, s.handleSetLocation)
	registerRaid(s.api, "setSubject", http.MethodPut, "/{raid}/subject", "Set subject",
		"Sets the raid boss or egg tier", 0, s.handleSetSubject)

	registerRaid(s.api, "createGroup", http.MethodPost, "/{raid}/groups", "Create group",
		"Opens a new group and moves the caller into it", http.StatusCreated, s.handleCreateGroup)
	registerRaid(s.api, "assignGroup", http.MethodPut, "/{raid}/group", "Assign group",
		"Moves the caller into a group, or back to the default group", 0, s.handleAssignGroup)
	registerRaid(s.api, "setGroupLabel", http.MethodPut, "/{raid}/groups/{group}/label", "Label group",
		"Sets a group's free-text label", 0, s.handleSetGroupLabel)

	registerRaid(s.api, "getRaidTotal", http.MethodGet, "/{raid}/total", "Head count",
		"Returns the raid's attendee count including guests", 0, s.handleGetTotal)
	registerRaid(s.api, "getRaidDisplay", http.MethodGet, "/{raid}/display", "Display data",
		"Returns render hints for the raid", 0, s.handleGetDisplay)
	registerRaid(s.api, "setDisplayMessage", http.MethodPut, "/{raid}/display-message", "Set display message",
		"Records the handle of the message rendering the raid", 0, s.handleSetDisplayMessage)
}

func registerRaid[I, O any](api huma.API, operationID, method, path, summary, description string, status int, handler func(context.Context, *I) (*O, error)) {
	huma.Register(api, huma.Operation{
		OperationID:   operationID,
		Method:        method,
		Path:          raidsPath + path,
		Summary:       summary,
		Description:   description,
		Tags:          []string{"Raids"},
		Security:      raidSecurity,
		DefaultStatus: status,
	}, handler)
}

// === DTOs ===

// ChannelPath selects a channel.
type ChannelPath struct {
	Channel string `path:"channel" maxLength:"128" doc:"Chat channel ID"`
}

// RaidPath selects a raid within a channel.
type RaidPath struct {
	Channel string `path:"channel" maxLength:"128" doc:"Chat channel ID"`
	Raid    string `path:"raid" maxLength:"128" doc:"Raid ID, case-insensitive; \"current\" is the caller's last touched raid"`
}

// MemberFields describes the caller as the chat platform knows them.
type MemberFields struct {
	DisplayName string   `json:"display_name,omitempty" validate:"max=100" doc:"Name shown on the roster"`
	RoleIDs     []string `json:"role_ids,omitempty" validate:"max=50,dive,notblank" doc:"Chat role IDs, used for icon hints"`
}

func (m MemberFields) member(memberID string) domain.Member {
	return domain.Member{ID: memberID, DisplayName: m.DisplayName, RoleIDs: m.RoleIDs}
}

// RaidResponse contains raid data in API responses.
type RaidResponse struct {
	ID                string            `json:"id" doc:"Raid ID"`
	ChannelID         string            `json:"channel_id" doc:"Channel the raid lives in"`
	CreatorID         string            `json:"creator_id" doc:"Member who created the raid"`
	CreatedAt         time.Time         `json:"created_at" doc:"Creation time"`
	Subject           domain.Subject    `json:"subject" doc:"Raid boss or egg tier"`
	Location          *domain.Gym       `json:"location,omitempty" doc:"Gym"`
	HatchTime         *time.Time        `json:"hatch_time,omitempty" doc:"Egg hatch time"`
	StartTime         *time.Time        `json:"start_time,omitempty" doc:"Planned start time"`
	EndTime           *domain.EndTime   `json:"end_time,omitempty" doc:"End time; invalid ones are evicted on the next sweep"`
	DisplayMessageRef string            `json:"display_message_ref,omitempty" doc:"Handle of the message rendering the raid"`
	TotalCount        int               `json:"total_count" doc:"Attendees including guests"`
	Attendees         []domain.Attendee `json:"attendees" doc:"Roster in join order"`
	Groups            []domain.Group    `json:"groups" doc:"Explicit groups in creation order"`
}

func toRaidResponse(r *domain.Raid) RaidResponse {
	return RaidResponse{
		ID:                r.ID,
		ChannelID:         r.ChannelID,
		CreatorID:         r.CreatorID,
		CreatedAt:         r.CreatedAt,
		Subject:           r.Subject,
		Location:          r.Location,
		HatchTime:         r.HatchTime,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		DisplayMessageRef: r.DisplayMessageRef,
		TotalCount:        r.TotalCount(),
		Attendees:         r.Roster.Attendees(),
		Groups:            r.Groups.List(),
	}
}

// RaidOutput wraps a raid response for Huma.
type RaidOutput struct {
	Body RaidResponse
}

func raidOutput(r *domain.Raid, err error) (*RaidOutput, error) {
	if err != nil {
		return nil, err
	}
	return &RaidOutput{Body: toRaidResponse(r)}, nil
}

// CreateRaidRequest is the request body for creating a raid.
type CreateRaidRequest struct {
	MemberFields
	SubjectName string `json:"subject_name,omitempty" validate:"max=100" doc:"Raid boss; omit for an egg"`
	Tier        *int   `json:"tier,omitempty" validate:"omitempty,raidtier" doc:"Raid tier 1-6"`
}

// CreateRaidInput wraps the create raid request for Huma.
type CreateRaidInput struct {
	ChannelPath
	Body CreateRaidRequest
}

func (s *Server) handleCreateRaid(ctx context.Context, input *CreateRaidInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	subject := domain.Subject{Name: input.Body.SubjectName, Tier: input.Body.Tier}
	return raidOutput(s.services.Raids.Create(ctx, input.Channel, input.Body.member(memberID), subject))
}

// ListRaidsInput contains parameters for listing raids.
type ListRaidsInput struct {
	ChannelPath
}

// ListRaidsResponse contains a channel's raids.
type ListRaidsResponse struct {
	Raids []RaidResponse `json:"raids" doc:"Live raids, oldest first"`
}

// ListRaidsOutput wraps the list raids response for Huma.
type ListRaidsOutput struct {
	Body ListRaidsResponse
}

func (s *Server) handleListRaids(ctx context.Context, input *ListRaidsInput) (*ListRaidsOutput, error) {
	raids, err := s.services.Raids.List(ctx, input.Channel)
	if err != nil {
		return nil, err
	}

	resp := make([]RaidResponse, len(raids))
	for i, r := range raids {
		resp[i] = toRaidResponse(r)
	}
	return &ListRaidsOutput{Body: ListRaidsResponse{Raids: resp}}, nil
}

// ResolveRaidRequest is the request body for resolving a raid from command tokens.
type ResolveRaidRequest struct {
	Tokens []string `json:"tokens" validate:"max=50" doc:"Command arguments in order"`
}

// ResolveRaidInput wraps the resolve raid request for Huma.
type ResolveRaidInput struct {
	ChannelPath
	Body ResolveRaidRequest
}

// ResolveRaidResponse is the resolved raid plus the tokens that did not name it.
type ResolveRaidResponse struct {
	Raid      RaidResponse `json:"raid" doc:"Resolved raid"`
	Unmatched []string     `json:"unmatched" doc:"Remaining tokens in order"`
}

// ResolveRaidOutput wraps the resolve raid response for Huma.
type ResolveRaidOutput struct {
	Body ResolveRaidResponse
}

func (s *Server) handleResolveRaid(ctx context.Context, input *ResolveRaidInput) (*ResolveRaidOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	res, err := s.services.Raids.Resolve(ctx, input.Channel, optionalMemberID(ctx), input.Body.Tokens)
	if err != nil {
		return nil, err
	}
	return &ResolveRaidOutput{Body: ResolveRaidResponse{
		Raid:      toRaidResponse(res.Raid),
		Unmatched: res.Unmatched,
	}}, nil
}

// GetRaidInput contains parameters for addressing a single raid.
type GetRaidInput struct {
	RaidPath
}

func (s *Server) handleGetRaid(ctx context.Context, input *GetRaidInput) (*RaidOutput, error) {
	return raidOutput(s.services.Raids.Get(ctx, input.Channel, input.Raid, optionalMemberID(ctx)))
}

func (s *Server) handleDeleteRaid(ctx context.Context, input *GetRaidInput) (*struct{}, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Raids.Delete(ctx, input.Channel, input.Raid, memberID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleTouchRaid(ctx context.Context, input *GetRaidInput) (*struct{}, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Raids.Touch(input.Channel, input.Raid, memberID); err != nil {
		return nil, err
	}
	return nil, nil
}

// JoinRaidRequest is the request body for joining a raid.
type JoinRaidRequest struct {
	MemberFields
	Additional int `json:"additional,omitempty" validate:"gte=0,lte=20" doc:"Guests brought along"`
}

// JoinRaidInput wraps the join raid request for Huma.
type JoinRaidInput struct {
	RaidPath
	Body JoinRaidRequest
}

func (s *Server) handleJoinRaid(ctx context.Context, input *JoinRaidInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.Join(ctx, input.Channel, input.Raid, input.Body.member(memberID), input.Body.Additional))
}

func (s *Server) handleInterested(ctx context.Context, input *JoinRaidInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.Interested(ctx, input.Channel, input.Raid, input.Body.member(memberID), input.Body.Additional))
}

func (s *Server) handleLeaveRaid(ctx context.Context, input *GetRaidInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.Leave(ctx, input.Channel, input.Raid, memberID))
}

// SetStatusInput wraps the set status request for Huma.
type SetStatusInput struct {
	RaidPath
	Body struct {
		Status string `json:"status" validate:"status" doc:"interested, joined, arrived or complete"`
	}
}

func (s *Server) handleSetStatus(ctx context.Context, input *SetStatusInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(input.Body.Status)
	if err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.SetStatus(ctx, input.Channel, input.Raid, memberID, status))
}

// SetAdditionalInput wraps the set guests request for Huma.
type SetAdditionalInput struct {
	RaidPath
	Body struct {
		Additional int `json:"additional" validate:"gte=0,lte=20" doc:"Guests brought along"`
	}
}

func (s *Server) handleSetAdditional(ctx context.Context, input *SetAdditionalInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.SetAdditional(ctx, input.Channel, input.Raid, memberID, input.Body.Additional))
}

// SetTimeInput wraps a raid time request for Huma.
type SetTimeInput struct {
	RaidPath
	Body struct {
		Time string `json:"time" validate:"notblank,max=32" doc:"Clock time (\"2:30\", \"14:30\", \"2:30 pm\") or minutes from now (\"45\")"`
	}
}

func (s *Server) handleSetHatchTime(ctx context.Context, input *SetTimeInput) (*RaidOutput, error) {
	return s.setTime(ctx, input, s.services.Raids.SetHatchTime)
}

func (s *Server) handleSetStartTime(ctx context.Context, input *SetTimeInput) (*RaidOutput, error) {
	return s.setTime(ctx, input, s.services.Raids.SetStartTime)
}

func (s *Server) handleSetEndTime(ctx context.Context, input *SetTimeInput) (*RaidOutput, error) {
	return s.setTime(ctx, input, s.services.Raids.SetEndTime)
}

func (s *Server) setTime(ctx context.Context, input *SetTimeInput, set func(ctx context.Context, channelID, raidID, userID, input string) (*domain.Raid, error)) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(set(ctx, input.Channel, input.Raid, memberID, input.Body.Time))
}

// ReportEndTimeInput wraps a reported end time for Huma.
type ReportEndTimeInput struct {
	RaidPath
	Body struct {
		Raw string `json:"raw" validate:"max=64" doc:"End time as read by the reporter"`
	}
}

func (s *Server) handleReportEndTime(ctx context.Context, input *ReportEndTimeInput) (*RaidOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.ReportEndTime(ctx, input.Channel, input.Raid, optionalMemberID(ctx), input.Body.Raw))
}

// SetLocationInput wraps the set location request for Huma.
type SetLocationInput struct {
	RaidPath
	Body struct {
		Gym string `json:"gym" validate:"notblank,max=200" doc:"Gym ID or free-text gym name"`
	}
}

func (s *Server) handleSetLocation(ctx context.Context, input *SetLocationInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.SetLocationRef(ctx, input.Channel, input.Raid, memberID, input.Body.Gym))
}

// SetSubjectInput wraps the set subject request for Huma.
type SetSubjectInput struct {
	RaidPath
	Body struct {
		Name string `json:"name,omitempty" validate:"max=100" doc:"Raid boss"`
		Tier *int   `json:"tier,omitempty" validate:"omitempty,raidtier" doc:"Raid tier 1-6"`
	}
}

func (s *Server) handleSetSubject(ctx context.Context, input *SetSubjectInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	subject := domain.Subject{Name: input.Body.Name, Tier: input.Body.Tier}
	return raidOutput(s.services.Raids.SetSubject(ctx, input.Channel, input.Raid, memberID, subject))
}

// CreateGroupResponse is the updated raid plus the new group.
type CreateGroupResponse struct {
	Raid  RaidResponse `json:"raid" doc:"Updated raid"`
	Group domain.Group `json:"group" doc:"New group"`
}

// CreateGroupOutput wraps the create group response for Huma.
type CreateGroupOutput struct {
	Body CreateGroupResponse
}

func (s *Server) handleCreateGroup(ctx context.Context, input *GetRaidInput) (*CreateGroupOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	raid, group, err := s.services.Raids.CreateGroup(ctx, input.Channel, input.Raid, memberID)
	if err != nil {
		return nil, err
	}
	return &CreateGroupOutput{Body: CreateGroupResponse{Raid: toRaidResponse(raid), Group: group}}, nil
}

// AssignGroupInput wraps the assign group request for Huma.
type AssignGroupInput struct {
	RaidPath
	Body struct {
		GroupID string `json:"group_id,omitempty" validate:"max=8" doc:"Group ID; empty or \"default\" for the default group"`
	}
}

func (s *Server) handleAssignGroup(ctx context.Context, input *AssignGroupInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.AssignGroup(ctx, input.Channel, input.Raid, memberID, input.Body.GroupID))
}

// SetGroupLabelInput wraps the group label request for Huma.
type SetGroupLabelInput struct {
	RaidPath
	Group string `path:"group" maxLength:"8" doc:"Group ID"`
	Body  struct {
		Label string `json:"label" validate:"max=100" doc:"Free-text label; empty clears it"`
	}
}

func (s *Server) handleSetGroupLabel(ctx context.Context, input *SetGroupLabelInput) (*RaidOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.SetGroupLabel(ctx, input.Channel, input.Raid, memberID, input.Group, input.Body.Label))
}

// TotalOutput wraps the head count response for Huma.
type TotalOutput struct {
	Body struct {
		Total int `json:"total" doc:"Attendees including guests"`
	}
}

func (s *Server) handleGetTotal(ctx context.Context, input *GetRaidInput) (*TotalOutput, error) {
	total, err := s.services.Raids.TotalAttendees(ctx, input.Channel, input.Raid, optionalMemberID(ctx))
	if err != nil {
		return nil, err
	}
	out := &TotalOutput{}
	out.Body.Total = total
	return out, nil
}

// DisplayOutput wraps render hints for Huma.
type DisplayOutput struct {
	Body domain.Display
}

func (s *Server) handleGetDisplay(ctx context.Context, input *GetRaidInput) (*DisplayOutput, error) {
	display, err := s.services.Raids.Display(ctx, input.Channel, input.Raid, optionalMemberID(ctx))
	if err != nil {
		return nil, err
	}
	return &DisplayOutput{Body: display}, nil
}

// SetDisplayMessageInput wraps the display message request for Huma.
type SetDisplayMessageInput struct {
	RaidPath
	Body struct {
		Ref string `json:"ref" validate:"max=256" doc:"Opaque message handle"`
	}
}

func (s *Server) handleSetDisplayMessage(ctx context.Context, input *SetDisplayMessageInput) (*RaidOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return raidOutput(s.services.Raids.SetDisplayMessage(ctx, input.Channel, input.Raid, input.Body.Ref))
}
