package api

// RecordIDResponse представляет ответ record API на создание записей:
// по одному id на каждую созданную запись, в порядке запроса.
type RecordIDResponse struct {
	IDs []string `json:"ids"`
}
