package bridge

import (
	"net/http"

	"tgbridge/pkg/format"
	"tgbridge/pkg/telegram"

	"github.com/go-chi/chi/v5"
)

// SendMessageRequest is the body of message sends and replies.
type SendMessageRequest struct {
	Message string `json:"message"  validate:"required"`
	// ReplyTo of 0 means no reply.
	ReplyTo *int   `json:"reply_to" validate:"omitempty,min=0"`
}

// ReactionRequest is the body of a reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
	Big   bool   `json:"big"`
}

// EditMessageRequest is the body of a message edit.
type EditMessageRequest struct {
	NewText string `json:"new_text" validate:"required"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

type chatsResponse struct {
	Chats []format.Dialog `json:"chats"`
	Count int             `json:"count"`
}

type messagesResponse struct {
	Messages []format.Message `json:"messages"`
	Count    int              `json:"count"`
}

type contactsResponse struct {
	Contacts []format.Contact `json:"contacts"`
	Count    int              `json:"count"`
}

type photosResponse struct {
	Photos []format.Photo `json:"photos"`
	Count  int            `json:"count"`
}

type gifsResponse struct {
	Gifs  []format.Gif `json:"gifs"`
	Count int          `json:"count"`
}

type sendResponse struct {
	Success   bool    `json:"success"`
	MessageID int     `json:"message_id"`
	Date      *string `json:"date"`
}

type editResponse struct {
	Success   bool `json:"success"`
	MessageID int  `json:"message_id"`
}

type forwardResponse struct {
	Success   bool `json:"success"`
	MessageID *int `json:"message_id"`
}

type reactionResponse struct {
	Success bool   `json:"success"`
	Emoji   string `json:"emoji"`
}

func (s *Service) health(w http.ResponseWriter, _ *http.Request) error {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Connected: s.client.Connected()})
	return nil
}

func (s *Service) me(w http.ResponseWriter, r *http.Request) error {
	self, err := s.client.Self(r.Context())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, format.FormatEntity(self))
	return nil
}

func (s *Service) listChats(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryLimit(r, chatsLimit)
	if err != nil {
		return err
	}

	// Unknown types match nothing.
	chatType := r.URL.Query().Get("chat_type")

	chats := make([]format.Dialog, 0)
	if limit > 0 {
		dialogs, err := s.client.Dialogs(r.Context(), limit)
		if err != nil {
			return err
		}
		for _, dialog := range dialogs {
			if chatType != "" && string(dialog.Entity.Kind()) != chatType {
				continue
			}
			chats = append(chats, format.FormatDialog(dialog))
		}
	}

	s.writeJSON(w, http.StatusOK, chatsResponse{Chats: chats, Count: len(chats)})
	return nil
}

func (s *Service) getChat(w http.ResponseWriter, r *http.Request) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, format.FormatEntity(entity))
	return nil
}

func (s *Service) listMessages(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryLimit(r, messagesLimit)
	if err != nil {
		return err
	}
	offsetID, err := queryInt(r, "offset_id")
	if err != nil {
		return err
	}

	return s.writeMessages(w, r, telegram.MessageQuery{Limit: limit, OffsetID: offsetID})
}

func (s *Service) history(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryLimit(r, historyLimit)
	if err != nil {
		return err
	}

	return s.writeMessages(w, r, telegram.MessageQuery{Limit: limit})
}

func (s *Service) searchMessages(w http.ResponseWriter, r *http.Request) error {
	query, err := requiredQuery(r, "query")
	if err != nil {
		return err
	}
	limit, err := queryLimit(r, searchLimit)
	if err != nil {
		return err
	}

	return s.writeMessages(w, r, telegram.MessageQuery{Limit: limit, Search: query})
}

// writeMessages resolves the chat, then lists messages unless the limit is zero.
func (s *Service) writeMessages(w http.ResponseWriter, r *http.Request, query telegram.MessageQuery) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}

	var messages []telegram.Message
	if query.Limit > 0 {
		messages, err = s.client.Messages(r.Context(), entity, query)
		if err != nil {
			return err
		}
	}

	formatted := format.FormatMessages(messages)
	s.writeJSON(w, http.StatusOK, messagesResponse{Messages: formatted, Count: len(formatted)})
	return nil
}

func (s *Service) sendMessage(w http.ResponseWriter, r *http.Request) error {
	var request SendMessageRequest
	if err := s.decodeBody(r, &request); err != nil {
		return err
	}

	replyTo := 0
	if request.ReplyTo != nil {
		replyTo = *request.ReplyTo
	}

	return s.send(w, r, request.Message, replyTo)
}

func (s *Service) reply(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}

	var request SendMessageRequest
	if err := s.decodeBody(r, &request); err != nil {
		return err
	}

	return s.send(w, r, request.Message, msgID)
}

func (s *Service) send(w http.ResponseWriter, r *http.Request, text string, replyTo int) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}

	sent, err := s.client.SendMessage(r.Context(), entity, text, replyTo)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, newSendResponse(sent))
	return nil
}

func (s *Service) sendReaction(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}

	var request ReactionRequest
	if err := s.decodeBody(r, &request); err != nil {
		return err
	}

	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	if err := s.client.SendReaction(r.Context(), entity, msgID, request.Emoji, request.Big); err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, reactionResponse{Success: true, Emoji: request.Emoji})
	return nil
}

func (s *Service) editMessage(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}

	var request EditMessageRequest
	if err := s.decodeBody(r, &request); err != nil {
		return err
	}

	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	edited, err := s.client.EditMessage(r.Context(), entity, msgID, request.NewText)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, editResponse{Success: true, MessageID: edited.ID})
	return nil
}

func (s *Service) deleteMessage(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}

	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	if err := s.client.DeleteMessages(r.Context(), entity, []int{msgID}); err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
	return nil
}

func (s *Service) forward(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}
	to, err := requiredQuery(r, "to_chat_id")
	if err != nil {
		return err
	}

	from, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	target, err := s.resolve(r.Context(), to)
	if err != nil {
		return err
	}

	sent, err := s.client.ForwardMessages(r.Context(), target, from, []int{msgID})
	if err != nil {
		return err
	}

	response := forwardResponse{Success: true}
	if sent.ID != 0 {
		response.MessageID = &sent.ID
	}

	s.writeJSON(w, http.StatusOK, response)
	return nil
}

func (s *Service) markRead(w http.ResponseWriter, r *http.Request) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	if err := s.client.MarkRead(r.Context(), entity); err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
	return nil
}

func (s *Service) pin(w http.ResponseWriter, r *http.Request) error {
	msgID, err := messageID(r)
	if err != nil {
		return err
	}

	entity, err := s.resolve(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		return err
	}
	if err := s.client.PinMessage(r.Context(), entity, msgID); err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
	return nil
}

func (s *Service) listContacts(w http.ResponseWriter, r *http.Request) error {
	users, err := s.client.Contacts(r.Context())
	if err != nil {
		return err
	}

	s.writeContacts(w, users)
	return nil
}

func (s *Service) searchContacts(w http.ResponseWriter, r *http.Request) error {
	query, err := requiredQuery(r, "query")
	if err != nil {
		return err
	}

	users, err := s.client.SearchContacts(r.Context(), query, contactSearchLimit)
	if err != nil {
		return err
	}

	s.writeContacts(w, users)
	return nil
}

func (s *Service) writeContacts(w http.ResponseWriter, users []*telegram.User) {
	contacts := make([]format.Contact, 0, len(users))
	for _, user := range users {
		contacts = append(contacts, format.FormatContact(user))
	}

	s.writeJSON(w, http.StatusOK, contactsResponse{Contacts: contacts, Count: len(contacts)})
}

func (s *Service) userStatus(w http.ResponseWriter, r *http.Request) error {
	entity, err := s.resolve(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, format.FormatStatus(entity))
	return nil
}

func (s *Service) userPhotos(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryLimit(r, photosLimit)
	if err != nil {
		return err
	}

	entity, err := s.resolve(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	photos := make([]format.Photo, 0)
	if limit > 0 {
		found, err := s.client.ProfilePhotos(r.Context(), entity, limit)
		if err != nil {
			return err
		}
		for _, photo := range found {
			photos = append(photos, format.FormatPhoto(photo))
		}
	}

	s.writeJSON(w, http.StatusOK, photosResponse{Photos: photos, Count: len(photos)})
	return nil
}

func (s *Service) searchGIFs(w http.ResponseWriter, r *http.Request) error {
	query, err := requiredQuery(r, "query")
	if err != nil {
		return err
	}
	limit, err := queryLimit(r, gifsLimit)
	if err != nil {
		return err
	}

	gifs := make([]format.Gif, 0)
	if limit > 0 {
		results, err := s.client.InlineQuery(r.Context(), s.cfg.Telegram.GIFBot, query)
		if err != nil {
			return err
		}
		gifs = format.FormatGifs(results, limit)
	}

	s.writeJSON(w, http.StatusOK, gifsResponse{Gifs: gifs, Count: len(gifs)})
	return nil
}

func newSendResponse(sent telegram.Sent) sendResponse {
	return sendResponse{Success: true, MessageID: sent.ID, Date: format.Timestamp(sent.Date)}
}
