package apifootball

// fixtureEnvelope is the /fixtures?id= payload. errors is an empty list on
// success and an object keyed by error kind otherwise.
type fixtureEnvelope struct {
	Errors   any           `json:"errors"`
	Results  int           `json:"results"`
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture    fixtureInfo       `json:"fixture"`
	League     leagueInfo        `json:"league"`
	Teams      fixtureTeams      `json:"teams"`
	Goals      fixtureGoals      `json:"goals"`
	Events     []eventItem       `json:"events"`
	Lineups    []lineupItem      `json:"lineups"`
	Statistics []statisticsItem  `json:"statistics"`
	Players    []teamPlayersItem `json:"players"`
}

type fixtureInfo struct {
	ID     int64         `json:"id"`
	Date   string        `json:"date"`
	Status fixtureStatus `json:"status"`
}

type fixtureStatus struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed"`
	Extra   *int   `json:"extra"`
}

type leagueInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Round  string `json:"round"`
	Season int    `json:"season"`
}

type fixtureTeams struct {
	Home teamRef `json:"home"`
	Away teamRef `json:"away"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fixtureGoals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type eventItem struct {
	Time     eventTime `json:"time"`
	Team     teamRef   `json:"team"`
	Player   personRef `json:"player"`
	Assist   personRef `json:"assist"`
	Type     string    `json:"type"`
	Detail   string    `json:"detail"`
	Comments *string   `json:"comments"`
}

type eventTime struct {
	Elapsed *int `json:"elapsed"`
	Extra   *int `json:"extra"`
}

type personRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

type lineupItem struct {
	Team      teamRef      `json:"team"`
	Formation string       `json:"formation"`
	StartXI   []lineupSlot `json:"startXI"`
}

type lineupSlot struct {
	Player lineupPlayer `json:"player"`
}

type lineupPlayer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
	Pos    string `json:"pos"`
}

type statisticsItem struct {
	Team       teamRef         `json:"team"`
	Statistics []statisticItem `json:"statistics"`
}

// statisticItem values arrive as numbers, percentage strings or null.
type statisticItem struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type teamPlayersItem struct {
	Team    teamRef           `json:"team"`
	Players []playerStatsItem `json:"players"`
}

type playerStatsItem struct {
	Player     teamRef             `json:"player"`
	Statistics []playerStatsDetail `json:"statistics"`
}

// playerStatsDetail keeps the categories that carry a match total.
type playerStatsDetail struct {
	Shots   statTotal `json:"shots"`
	Goals   statTotal `json:"goals"`
	Passes  statTotal `json:"passes"`
	Tackles statTotal `json:"tackles"`
	Duels   statTotal `json:"duels"`
}

type statTotal struct {
	Total *int `json:"total"`
}
