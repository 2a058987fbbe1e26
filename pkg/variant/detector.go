package variant

import (
	"github.com/minazuki-dev/zhconv/pkg/dict"
)

// charPairs lists characters whose Simplified and Traditional spellings
// differ. The table is a classification heuristic, not an authority on
// convertibility: the engine decides whether a file needs work by
// comparing the transformed text against the original, so a character
// missing here never causes a wrong skip. Characters that are valid in
// both scripts (台, 后, 里, 余) are left out to avoid misclassifying.
var charPairs = []struct{ s, t rune }{
	{'爱', '愛'}, {'边', '邊'}, {'这', '這'}, {'么', '麼'}, {'请', '請'},
	{'们', '們'}, {'会', '會'}, {'习', '習'}, {'专', '專'}, {'业', '業'},
	{'东', '東'}, {'严', '嚴'}, {'丽', '麗'}, {'乐', '樂'}, {'书', '書'},
	{'买', '買'}, {'马', '馬'}, {'鸟', '鳥'}, {'龙', '龍'}, {'点', '點'},
	{'战', '戰'}, {'观', '觀'}, {'语', '語'}, {'说', '說'}, {'谁', '誰'},
	{'读', '讀'}, {'门', '門'}, {'问', '問'}, {'间', '間'}, {'闻', '聞'},
	{'风', '風'}, {'飞', '飛'}, {'车', '車'}, {'转', '轉'}, {'轻', '輕'},
	{'医', '醫'}, {'难', '難'}, {'欢', '歡'}, {'护', '護'}, {'热', '熱'},
	{'无', '無'}, {'旧', '舊'}, {'时', '時'}, {'实', '實'}, {'宝', '寶'},
	{'对', '對'}, {'寻', '尋'}, {'导', '導'}, {'将', '將'}, {'尔', '爾'},
	{'尘', '塵'}, {'归', '歸'}, {'当', '當'}, {'录', '錄'}, {'忆', '憶'},
	{'怀', '懷'}, {'态', '態'}, {'总', '總'}, {'恶', '惡'}, {'惊', '驚'},
	{'应', '應'}, {'开', '開'}, {'关', '關'}, {'发', '發'}, {'变', '變'},
	{'听', '聽'}, {'头', '頭'}, {'义', '義'}, {'让', '讓'}, {'认', '認'},
	{'议', '議'}, {'记', '記'}, {'许', '許'}, {'诉', '訴'}, {'词', '詞'},
	{'译', '譯'}, {'试', '試'}, {'诗', '詩'}, {'话', '話'}, {'该', '該'},
	{'贝', '貝'}, {'负', '負'}, {'贡', '貢'}, {'财', '財'}, {'责', '責'},
	{'败', '敗'}, {'货', '貨'}, {'质', '質'}, {'购', '購'}, {'贵', '貴'},
	{'银', '銀'}, {'错', '錯'}, {'钱', '錢'}, {'铁', '鐵'}, {'锁', '鎖'},
	{'长', '長'}, {'际', '際'}, {'陆', '陸'}, {'阳', '陽'}, {'阴', '陰'},
	{'云', '雲'}, {'电', '電'}, {'体', '體'}, {'动', '動'}, {'务', '務'},
	{'广', '廣'}, {'厂', '廠'}, {'历', '歷'}, {'压', '壓'}, {'县', '縣'},
	{'图', '圖'}, {'团', '團'}, {'国', '國'}, {'园', '園'}, {'圆', '圓'},
	{'宁', '寧'}, {'审', '審'}, {'写', '寫'}, {'军', '軍'}, {'农', '農'},
	{'经', '經'}, {'给', '給'}, {'络', '絡'}, {'统', '統'}, {'继', '繼'},
	{'维', '維'}, {'红', '紅'}, {'级', '級'}, {'纪', '紀'}, {'纸', '紙'},
	{'线', '線'}, {'练', '練'}, {'组', '組'}, {'细', '細'}, {'终', '終'},
	{'显', '顯'}, {'顺', '順'}, {'须', '須'}, {'顿', '頓'}, {'预', '預'},
	{'领', '領'}, {'频', '頻'}, {'题', '題'}, {'颜', '顏'}, {'饭', '飯'},
	{'馆', '館'}, {'驱', '驅'}, {'验', '驗'}, {'鱼', '魚'}, {'黄', '黃'},
	{'亿', '億'}, {'仅', '僅'}, {'从', '從'}, {'众', '眾'}, {'优', '優'},
	{'传', '傳'}, {'伤', '傷'}, {'价', '價'}, {'侠', '俠'}, {'俭', '儉'},
	{'债', '債'}, {'倾', '傾'}, {'偿', '償'}, {'储', '儲'}, {'儿', '兒'},
	{'党', '黨'}, {'兰', '蘭'}, {'兴', '興'}, {'养', '養'}, {'兽', '獸'},
	{'决', '決'}, {'况', '況'}, {'冻', '凍'}, {'净', '淨'}, {'凤', '鳳'},
	{'凭', '憑'}, {'击', '擊'}, {'刘', '劉'}, {'则', '則'}, {'刚', '剛'},
	{'创', '創'}, {'别', '別'}, {'剂', '劑'}, {'剑', '劍'}, {'势', '勢'},
	{'劳', '勞'}, {'华', '華'}, {'协', '協'}, {'单', '單'}, {'卖', '賣'},
	{'卫', '衛'}, {'厅', '廳'}, {'厉', '厲'}, {'厌', '厭'}, {'参', '參'},
	{'吓', '嚇'}, {'吕', '呂'}, {'启', '啟'}, {'吴', '吳'}, {'员', '員'},
	{'响', '響'}, {'唤', '喚'}, {'围', '圍'}, {'圣', '聖'}, {'场', '場'},
	{'块', '塊'}, {'坚', '堅'}, {'坏', '壞'}, {'壶', '壺'}, {'处', '處'},
	{'备', '備'}, {'复', '復'}, {'够', '夠'}, {'夹', '夾'}, {'夺', '奪'},
	{'奋', '奮'}, {'奖', '獎'}, {'妇', '婦'}, {'妈', '媽'}, {'娱', '娛'},
	{'学', '學'}, {'孙', '孫'}, {'宽', '寬'}, {'宾', '賓'}, {'寿', '壽'},
	{'尝', '嘗'}, {'层', '層'}, {'届', '屆'}, {'属', '屬'}, {'岁', '歲'},
	{'岛', '島'}, {'峡', '峽'}, {'币', '幣'}, {'师', '師'}, {'帅', '帥'},
	{'帮', '幫'}, {'干', '乾'}, {'并', '並'}, {'庆', '慶'}, {'库', '庫'},
	{'废', '廢'}, {'异', '異'}, {'弃', '棄'}, {'张', '張'}, {'弹', '彈'},
	{'强', '強'}, {'彻', '徹'}, {'径', '徑'}, {'忧', '憂'}, {'怜', '憐'},
	{'恋', '戀'}, {'恳', '懇'}, {'悬', '懸'}, {'惧', '懼'}, {'惨', '慘'},
	{'惯', '慣'}, {'愤', '憤'}, {'愿', '願'}, {'懒', '懶'}, {'戏', '戲'},
	{'户', '戶'}, {'执', '執'}, {'扩', '擴'}, {'扫', '掃'}, {'扬', '揚'},
	{'抚', '撫'}, {'抢', '搶'}, {'报', '報'}, {'担', '擔'}, {'拟', '擬'},
	{'拥', '擁'}, {'挂', '掛'}, {'挤', '擠'}, {'挥', '揮'}, {'损', '損'},
	{'换', '換'}, {'据', '據'}, {'摄', '攝'}, {'摆', '擺'}, {'摊', '攤'},
	{'敌', '敵'}, {'数', '數'}, {'断', '斷'}, {'晋', '晉'}, {'暂', '暫'},
	{'术', '術'}, {'机', '機'}, {'杀', '殺'}, {'杂', '雜'}, {'权', '權'},
	{'条', '條'}, {'来', '來'}, {'杨', '楊'}, {'极', '極'}, {'构', '構'},
	{'枪', '槍'}, {'柜', '櫃'}, {'标', '標'}, {'栏', '欄'}, {'树', '樹'},
	{'样', '樣'}, {'档', '檔'}, {'桥', '橋'}, {'梦', '夢'}, {'检', '檢'},
	{'楼', '樓'}, {'欧', '歐'}, {'残', '殘'}, {'毁', '毀'}, {'毕', '畢'},
	{'气', '氣'}, {'汇', '匯'}, {'汉', '漢'}, {'汤', '湯'}, {'沟', '溝'},
	{'泪', '淚'}, {'泽', '澤'}, {'洁', '潔'}, {'浅', '淺'}, {'测', '測'},
	{'济', '濟'}, {'浑', '渾'}, {'浓', '濃'}, {'润', '潤'}, {'涨', '漲'},
	{'渐', '漸'}, {'渔', '漁'}, {'温', '溫'}, {'湾', '灣'}, {'湿', '濕'},
	{'滚', '滾'}, {'满', '滿'}, {'滤', '濾'}, {'滨', '濱'}, {'潜', '潛'},
	{'灭', '滅'}, {'灯', '燈'}, {'灵', '靈'}, {'灾', '災'}, {'炉', '爐'},
	{'炼', '煉'}, {'烂', '爛'}, {'烦', '煩'}, {'烧', '燒'}, {'烫', '燙'},
	{'爷', '爺'}, {'牵', '牽'}, {'牺', '犧'}, {'犹', '猶'}, {'状', '狀'},
	{'独', '獨'}, {'狮', '獅'}, {'狱', '獄'}, {'猎', '獵'}, {'猫', '貓'},
	{'献', '獻'}, {'环', '環'}, {'现', '現'}, {'玛', '瑪'}, {'琼', '瓊'},
	{'画', '畫'}, {'畅', '暢'}, {'疗', '療'}, {'疯', '瘋'}, {'痒', '癢'},
	{'盏', '盞'}, {'盐', '鹽'}, {'监', '監'}, {'盖', '蓋'}, {'盘', '盤'},
	{'确', '確'}, {'码', '碼'}, {'砖', '磚'}, {'础', '礎'}, {'碍', '礙'},
	{'礼', '禮'}, {'祸', '禍'}, {'离', '離'}, {'种', '種'}, {'积', '積'},
	{'称', '稱'}, {'稳', '穩'}, {'穷', '窮'}, {'窃', '竊'}, {'窝', '窩'},
	{'竖', '豎'}, {'竞', '競'}, {'笔', '筆'}, {'笼', '籠'}, {'筑', '築'},
	{'筛', '篩'}, {'签', '簽'}, {'简', '簡'}, {'篮', '籃'}, {'类', '類'},
	{'粮', '糧'}, {'紧', '緊'}, {'纠', '糾'}, {'纤', '纖'}, {'约', '約'},
	{'纬', '緯'}, {'纯', '純'}, {'纱', '紗'}, {'纳', '納'}, {'纵', '縱'},
	{'纷', '紛'}, {'纹', '紋'}, {'绍', '紹'}, {'结', '結'}, {'绕', '繞'},
	{'绘', '繪'}, {'绝', '絕'}, {'绞', '絞'}, {'绳', '繩'}, {'绣', '繡'},
	{'续', '續'}, {'绪', '緒'}, {'绵', '綿'}, {'绸', '綢'}, {'综', '綜'},
	{'绿', '綠'}, {'缓', '緩'}, {'编', '編'}, {'缘', '緣'}, {'缚', '縛'},
	{'缝', '縫'}, {'缠', '纏'}, {'缩', '縮'}, {'缴', '繳'}, {'网', '網'},
	{'罗', '羅'}, {'罚', '罰'}, {'罢', '罷'}, {'翘', '翹'}, {'耸', '聳'},
	{'联', '聯'}, {'聪', '聰'}, {'肃', '肅'}, {'肠', '腸'}, {'肤', '膚'},
	{'肾', '腎'}, {'肿', '腫'}, {'胀', '脹'}, {'胁', '脅'}, {'脉', '脈'},
	{'脑', '腦'}, {'脏', '臟'}, {'脸', '臉'}, {'腻', '膩'}, {'临', '臨'},
	{'舆', '輿'}, {'艰', '艱'}, {'艺', '藝'}, {'节', '節'}, {'芦', '蘆'},
	{'苏', '蘇'}, {'药', '藥'}, {'莱', '萊'}, {'获', '獲'}, {'莲', '蓮'},
	{'萝', '蘿'}, {'营', '營'}, {'萧', '蕭'}, {'蓝', '藍'}, {'蕴', '蘊'},
	{'虑', '慮'}, {'虽', '雖'}, {'虾', '蝦'}, {'蚀', '蝕'}, {'蚁', '蟻'},
	{'蛮', '蠻'}, {'蜡', '蠟'}, {'蝇', '蠅'}, {'补', '補'}, {'衬', '襯'},
	{'装', '裝'}, {'裤', '褲'}, {'见', '見'}, {'规', '規'}, {'视', '視'},
	{'览', '覽'}, {'觉', '覺'}, {'誉', '譽'}, {'计', '計'}, {'订', '訂'},
	{'讨', '討'}, {'训', '訓'}, {'讯', '訊'}, {'访', '訪'}, {'证', '證'},
	{'评', '評'}, {'识', '識'}, {'诈', '詐'}, {'诊', '診'}, {'诚', '誠'},
	{'详', '詳'}, {'诞', '誕'}, {'误', '誤'}, {'诱', '誘'}, {'课', '課'},
	{'调', '調'}, {'谅', '諒'}, {'谈', '談'}, {'谊', '誼'}, {'谋', '謀'},
	{'谍', '諜'}, {'谎', '謊'}, {'谐', '諧'}, {'谜', '謎'}, {'谢', '謝'},
	{'谣', '謠'}, {'谦', '謙'}, {'谨', '謹'}, {'谱', '譜'}, {'贞', '貞'},
	{'账', '賬'}, {'贩', '販'}, {'贪', '貪'}, {'贫', '貧'}, {'贯', '貫'},
	{'贴', '貼'}, {'贺', '賀'}, {'贼', '賊'}, {'资', '資'}, {'赋', '賦'},
	{'赌', '賭'}, {'赏', '賞'}, {'赐', '賜'}, {'赔', '賠'}, {'赖', '賴'},
	{'赚', '賺'}, {'赛', '賽'}, {'赞', '贊'}, {'赠', '贈'}, {'赢', '贏'},
	{'赶', '趕'}, {'趋', '趨'}, {'跃', '躍'}, {'践', '踐'}, {'踪', '蹤'},
	{'躯', '軀'}, {'轨', '軌'}, {'轮', '輪'}, {'软', '軟'}, {'轴', '軸'},
	{'载', '載'}, {'较', '較'}, {'辅', '輔'}, {'辆', '輛'}, {'辈', '輩'},
	{'辉', '輝'}, {'辞', '辭'}, {'辩', '辯'}, {'辫', '辮'}, {'达', '達'},
	{'迁', '遷'}, {'过', '過'}, {'迈', '邁'}, {'运', '運'}, {'还', '還'},
	{'进', '進'}, {'远', '遠'}, {'违', '違'}, {'连', '連'}, {'迟', '遲'},
	{'迹', '跡'}, {'选', '選'}, {'逊', '遜'}, {'递', '遞'}, {'逻', '邏'},
	{'遗', '遺'}, {'邓', '鄧'}, {'邮', '郵'}, {'邻', '鄰'}, {'郑', '鄭'},
	{'酱', '醬'}, {'酿', '釀'}, {'释', '釋'}, {'鉴', '鑒'}, {'针', '針'},
	{'钉', '釘'}, {'钓', '釣'}, {'钟', '鐘'}, {'钢', '鋼'}, {'钥', '鑰'},
	{'钦', '欽'}, {'钻', '鑽'}, {'铃', '鈴'}, {'铅', '鉛'}, {'铜', '銅'},
	{'铝', '鋁'}, {'锅', '鍋'}, {'锋', '鋒'}, {'锐', '銳'}, {'锦', '錦'},
	{'键', '鍵'}, {'镇', '鎮'}, {'镜', '鏡'}, {'闪', '閃'}, {'闭', '閉'},
	{'闯', '闖'}, {'闲', '閒'}, {'闹', '鬧'}, {'阅', '閱'}, {'阔', '闊'},
	{'队', '隊'}, {'阶', '階'}, {'陈', '陳'}, {'险', '險'}, {'随', '隨'},
	{'隐', '隱'}, {'雾', '霧'}, {'静', '靜'}, {'韩', '韓'}, {'页', '頁'},
	{'顶', '頂'}, {'项', '項'}, {'顾', '顧'}, {'颁', '頒'}, {'颂', '頌'},
	{'颗', '顆'}, {'额', '額'}, {'飘', '飄'}, {'饮', '飲'}, {'饰', '飾'},
	{'饱', '飽'}, {'饼', '餅'}, {'馒', '饅'}, {'驰', '馳'}, {'驶', '駛'},
	{'驻', '駐'}, {'驾', '駕'}, {'骂', '罵'}, {'骄', '驕'}, {'骑', '騎'},
	{'骗', '騙'}, {'鲁', '魯'}, {'鲜', '鮮'}, {'鸡', '雞'}, {'鸣', '鳴'},
	{'鸭', '鴨'}, {'鸿', '鴻'}, {'鹅', '鵝'}, {'鹰', '鷹'}, {'麦', '麥'},
	{'齐', '齊'}, {'齿', '齒'}, {'龄', '齡'}, {'龟', '龜'},
}

var (
	simplifiedOnly  = make(map[rune]struct{}, len(charPairs))
	traditionalOnly = make(map[rune]struct{}, len(charPairs))
)

func init() {
	for _, p := range charPairs {
		simplifiedOnly[p.s] = struct{}{}
		traditionalOnly[p.t] = struct{}{}
	}
}

// Detector classifies text by script variant. It is stateless and safe
// to share across workers.
type Detector struct{}

// NewDetector creates a Detector
func NewDetector() *Detector {
	return &Detector{}
}

// ContainsSource reports whether text contains characters specific to
// the source script of the given direction. A false result is a
// heuristic, not proof that conversion would leave the text alone.
func (d *Detector) ContainsSource(text string, direction dict.Direction) bool {
	set := simplifiedOnly
	if direction == dict.Reverse {
		set = traditionalOnly
	}
	for _, r := range text {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// ContainsSimplified reports whether text contains Simplified-specific
// characters
func (d *Detector) ContainsSimplified(text string) bool {
	return d.ContainsSource(text, dict.Forward)
}

// ContainsTraditional reports whether text contains
// Traditional-specific characters
func (d *Detector) ContainsTraditional(text string) bool {
	return d.ContainsSource(text, dict.Reverse)
}

// ValueContainsSource walks a decoded JSON value and reports whether
// any string leaf contains source-script characters. Object values and
// array elements are visited recursively.
func (d *Detector) ValueContainsSource(value any, direction dict.Direction) bool {
	switch v := value.(type) {
	case string:
		return d.ContainsSource(v, direction)
	case map[string]any:
		for _, elem := range v {
			if d.ValueContainsSource(elem, direction) {
				return true
			}
		}
	case []any:
		for _, elem := range v {
			if d.ValueContainsSource(elem, direction) {
				return true
			}
		}
	}
	return false
}
