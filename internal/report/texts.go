package report

import "github.com/woozymasta/mcmotd/internal/models"

type texts struct {
	failures map[models.FailureReason]string

	sep         string
	status      string
	online      string
	offline     string
	address     string
	country     string
	description string
	latency     string
	protocol    string
	version     string
	players     string
	playerList  string
	none        string
	world       string
	gameMode    string

	invalidAddress string
	notBound       string
	notServed      string
	bound          string
	unbound        string
	internal       string
}

var catalog = map[Lang]texts{
	LangZH: {
		sep:         ": ",
		status:      "状态",
		online:      "在线",
		offline:     "离线",
		address:     "地址",
		country:     "地区",
		description: "描述",
		latency:     "延迟",
		protocol:    "协议版本",
		version:     "游戏版本",
		players:     "在线人数",
		playerList:  "玩家列表",
		none:        "无",
		world:       "地图名称",
		gameMode:    "默认模式",
		failures: map[models.FailureReason]string{
			models.ReasonServerOffline:      "服务器当前离线。",
			models.ReasonAllProvidersFailed: "无法连接任何状态查询服务，请稍后再试。",
			models.ReasonMalformedResponse:  "状态查询服务返回了无法识别的数据。",
			models.ReasonUnreachable:        "查询已取消或超时，无法获取服务器状态信息。",
		},
		invalidAddress: "服务器地址无效，请使用 host[:port] 格式。",
		notBound:       "本群尚未绑定服务器。",
		notServed:      "本群未启用服务器查询。",
		bound:          "已绑定服务器: %s",
		unbound:        "已解除服务器绑定。",
		internal:       "内部错误，请稍后再试。",
	},
	LangEN: {
		sep:         ": ",
		status:      "Status",
		online:      "online",
		offline:     "offline",
		address:     "Address",
		country:     "Country",
		description: "Description",
		latency:     "Latency",
		protocol:    "Protocol version",
		version:     "Game version",
		players:     "Players",
		playerList:  "Player list",
		none:        "none",
		world:       "World",
		gameMode:    "Game mode",
		failures: map[models.FailureReason]string{
			models.ReasonServerOffline:      "The server is offline.",
			models.ReasonAllProvidersFailed: "Could not reach any status provider, try again later.",
			models.ReasonMalformedResponse:  "The status provider returned data that could not be read.",
			models.ReasonUnreachable:        "The lookup was cancelled or timed out before the server could be reached.",
		},
		invalidAddress: "Invalid server address, use host[:port].",
		notBound:       "No server is bound to this group.",
		notServed:      "Server lookups are not enabled for this group.",
		bound:          "Bound server: %s",
		unbound:        "Server binding removed.",
		internal:       "Internal error, try again later.",
	},
}

func textsFor(lang Lang) texts {
	if t, ok := catalog[lang]; ok {
		return t
	}

	return catalog[DefaultLang]
}
