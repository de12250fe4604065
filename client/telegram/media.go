package telegram

import (
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// fileMessage extracts the file facts of one raw message. Returns false
// for messages without downloadable media.
func fileMessage(msg *tg.Message, chatID int64, chatTitle string) (tgfile.FileMessage, bool) {
	fm := tgfile.FileMessage{
		MessageID: msg.ID,
		ChatID:    chatID,
		ChatTitle: chatTitle,
		Caption:   msg.Message,
		Date:      time.Unix(int64(msg.Date), 0),
	}

	switch media := msg.Media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.AsNotEmpty()
		if !ok {
			return fm, false
		}
		fm.Size = doc.Size
		fm.FileName = documentFileName(doc)
		if fm.FileName == "" {
			// Nameless documents keep at least a usable extension.
			if ext := tgfile.ExtFromMime(doc.MimeType); ext != "" {
				fm.FileName = fmt.Sprintf("file_%d.%s", msg.ID, ext)
			}
		}
		return fm, true
	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.AsNotEmpty()
		if !ok {
			return fm, false
		}
		size, _ := largestPhotoSize(photo)
		fm.Size = size
		fm.FileName = fmt.Sprintf("photo_%d.jpg", msg.ID)
		return fm, true
	}
	return fm, false
}

func documentFileName(doc *tg.Document) string {
	for _, attr := range doc.Attributes {
		if fn, ok := attr.(*tg.DocumentAttributeFilename); ok {
			return fn.FileName
		}
	}
	return ""
}

// largestPhotoSize returns the byte size and thumb type of the biggest
// available photo rendition.
func largestPhotoSize(photo *tg.Photo) (int64, string) {
	var best int64
	thumb := ""
	for _, s := range photo.Sizes {
		switch sz := s.(type) {
		case *tg.PhotoSize:
			if int64(sz.Size) > best {
				best = int64(sz.Size)
				thumb = sz.Type
			}
		case *tg.PhotoSizeProgressive:
			var max int
			for _, n := range sz.Sizes {
				if n > max {
					max = n
				}
			}
			if int64(max) > best {
				best = int64(max)
				thumb = sz.Type
			}
		}
	}
	return best, thumb
}

// fileLocation resolves the download location and total size of a
// message's media.
func fileLocation(msg *tg.Message) (tg.InputFileLocationClass, int64, error) {
	switch media := msg.Media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.AsNotEmpty()
		if !ok {
			return nil, 0, fmt.Errorf("message %d: empty document", msg.ID)
		}
		return doc.AsInputDocumentFileLocation(), doc.Size, nil
	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.AsNotEmpty()
		if !ok {
			return nil, 0, fmt.Errorf("message %d: empty photo", msg.ID)
		}
		size, thumb := largestPhotoSize(photo)
		return &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     thumb,
		}, size, nil
	}
	return nil, 0, fmt.Errorf("message %d has no downloadable media", msg.ID)
}
