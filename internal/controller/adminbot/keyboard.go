package adminbot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

const (
	clientsPagePrefix = "clients_page:"
	clientsPerPage    = 10
)

// pageButtons builds the ⬅️ n/m ➡️ row; nil when everything fits on one page
func pageButtons(prefix string, page, totalPages int) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var row []models.InlineKeyboardButton
	if page > 0 {
		row = append(row, button("⬅️", fmt.Sprintf("%s%d", prefix, page-1)))
	}
	row = append(row, button(fmt.Sprintf("📄 %d/%d", page+1, totalPages), "noop"))
	if page < totalPages-1 {
		row = append(row, button("➡️", fmt.Sprintf("%s%d", prefix, page+1)))
	}
	return row
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func pageKeyboard(prefix string, page, totalPages int) models.ReplyMarkup {
	row := pageButtons(prefix, page, totalPages)
	if row == nil {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// parsePage reads the page number out of "clients_page:3"
func parsePage(data, prefix string) (int, bool) {
	raw, found := strings.CutPrefix(data, prefix)
	if !found {
		return 0, false
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, false
	}
	return page, true
}

func totalPages(n, perPage int) int {
	if n == 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}
