package mtproto

import (
	"context"
	"math/rand/v2"
	"mime"
	"path/filepath"
	"strings"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
)

const (
	defaultMIME = "application/octet-stream"
	voiceMIME   = "audio/ogg"
)

// photoExtensions are sent as compressed photos; everything else is a document.
var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// SendFile uploads the file at path and posts it with an optional caption.
func (c *Client) SendFile(ctx context.Context, peer telegram.Entity, path string, opts telegram.FileOptions) (telegram.Sent, error) {
	input, err := inputPeer(peer)
	if err != nil {
		return telegram.Sent{}, err
	}

	file, err := uploader.NewUploader(c.api()).FromPath(ctx, path)
	if err != nil {
		return telegram.Sent{}, classify("upload file", err)
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = filepath.Base(path)
	}

	request := &tg.MessagesSendMediaRequest{
		Peer:     input,
		Media:    uploadedMedia(file, fileName, opts.VoiceNote),
		Message:  opts.Caption,
		RandomID: rand.Int64(),
	}

	updates, err := c.api().MessagesSendMedia(ctx, request)
	if err != nil {
		return telegram.Sent{}, classify("send file", err)
	}
	c.rememberUpdates(updates)

	return sentFromUpdates(updates, request.RandomID), nil
}

func uploadedMedia(file tg.InputFileClass, fileName string, voice bool) tg.InputMediaClass {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := photoExtensions[ext]; ok && !voice {
		return &tg.InputMediaUploadedPhoto{File: file}
	}

	attributes := []tg.DocumentAttributeClass{&tg.DocumentAttributeFilename{FileName: fileName}}
	if voice {
		attributes = append(attributes, &tg.DocumentAttributeAudio{Voice: true})
	}

	return &tg.InputMediaUploadedDocument{
		File:       file,
		MimeType:   mimeType(ext, voice),
		Attributes: attributes,
	}
}

func mimeType(ext string, voice bool) string {
	if voice {
		return voiceMIME
	}
	if value := mime.TypeByExtension(ext); value != "" {
		if base, _, err := mime.ParseMediaType(value); err == nil {
			return base
		}
		return value
	}

	return defaultMIME
}
